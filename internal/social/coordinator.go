package social

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vendora/backend/internal/cache"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/metrics"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSelfFollow is returned when an actor tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrTargetNotFound is returned when the target profile does not exist.
	ErrTargetNotFound = errors.New("target profile not found")
)

// FollowResult reports the state of the relationship after a toggle,
// carrying the adjusted counters the caller can display immediately.
type FollowResult struct {
	TargetID       string `json:"target_id"`
	IsFollowing    bool   `json:"is_following"`
	FollowerCount  int    `json:"follower_count"`  // target's
	FollowingCount int    `json:"following_count"` // actor's

	// Changed is false when the toggle was a no-op: the relationship was
	// already in the requested state, or the target is a demo profile.
	Changed bool `json:"changed"`
	Mocked  bool `json:"mocked,omitempty"`
}

// Coordinator applies follow/unfollow mutations with the fast-path counter
// adjustment the profile views display, then repairs the denormalized
// counters with an asynchronous authoritative recount.
//
// The counters on users are a cache of the follows table, never a source of
// truth; the coordinator is the only code path allowed to move them.
type Coordinator struct {
	db    *gorm.DB
	repo  repository.ProfileRepository
	cache *cache.RedisClient

	// Serializes overlapping toggles per target so rapid repeated toggles
	// cannot interleave their counter adjustments.
	targetLocks sync.Map // targetID -> *sync.Mutex

	// syncReconcile runs recounts inline instead of in a goroutine. Used
	// by the admin recount path and tests that need determinism.
	syncReconcile bool

	wg sync.WaitGroup
}

// NewCoordinator creates a social mutation coordinator. cache may be nil.
func NewCoordinator(db *gorm.DB, repo repository.ProfileRepository, redisCache *cache.RedisClient) *Coordinator {
	return &Coordinator{
		db:    db,
		repo:  repo,
		cache: redisCache,
	}
}

// NewSyncCoordinator creates a coordinator whose reconciliation runs inline.
func NewSyncCoordinator(db *gorm.DB, repo repository.ProfileRepository, redisCache *cache.RedisClient) *Coordinator {
	c := NewCoordinator(db, repo, redisCache)
	c.syncReconcile = true
	return c
}

// ToggleFollow moves the relationship between actor and target to the
// requested state. The returned counters reflect the fast-path adjustment
// (clamped at zero) and are overwritten later by the authoritative recount;
// the call never blocks on reconciliation.
//
// Demo profiles (ids prefixed "mock-") are excluded: the call is a no-op
// with no edge written and no counter moved.
func (c *Coordinator) ToggleFollow(ctx context.Context, actorID, targetID string, follow bool) (*FollowResult, error) {
	action := "unfollow"
	if follow {
		action = "follow"
	}

	if models.IsMockID(targetID) || models.IsMockID(actorID) {
		metrics.FollowMutations.WithLabelValues(action, "mocked").Inc()
		return &FollowResult{TargetID: targetID, IsFollowing: false, Mocked: true}, nil
	}

	if actorID == targetID {
		metrics.FollowMutations.WithLabelValues(action, "rejected").Inc()
		return nil, ErrSelfFollow
	}

	unlock := c.lockTarget(targetID)
	defer unlock()

	// Loaded under the target lock so the counters in the result are
	// computed from the same snapshot the adjustment commits against.
	target, err := c.repo.GetProfile(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			metrics.FollowMutations.WithLabelValues(action, "rejected").Inc()
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	already, err := c.repo.IsFollowing(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	if already == follow {
		// Relationship already in the requested state; report it as-is.
		actor, err := c.repo.GetProfile(ctx, actorID)
		if err != nil {
			return nil, err
		}
		metrics.FollowMutations.WithLabelValues(action, "noop").Inc()
		return &FollowResult{
			TargetID:       targetID,
			IsFollowing:    follow,
			FollowerCount:  clamp(target.FollowerCount),
			FollowingCount: clamp(actor.FollowingCount),
		}, nil
	}

	// Edge write and counter adjustment commit together: the transaction
	// is the rollback, so a rejected mutation leaves both untouched.
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewProfileRepository(tx)

		if follow {
			if err := txRepo.CreateFollow(ctx, actorID, targetID); err != nil {
				return err
			}
		} else {
			if err := txRepo.DeleteFollow(ctx, actorID, targetID); err != nil {
				return err
			}
		}

		if err := adjustCounter(tx, targetID, "follower_count", follow); err != nil {
			return err
		}
		return adjustCounter(tx, actorID, "following_count", follow)
	})
	if err != nil {
		metrics.FollowMutations.WithLabelValues(action, "failed").Inc()
		return nil, fmt.Errorf("%s commit: %w", action, err)
	}

	metrics.FollowMutations.WithLabelValues(action, "committed").Inc()
	c.cache.InvalidateProfile(ctx, actorID, targetID)

	if follow {
		c.notifyFollow(ctx, actorID, target)
	}

	result := &FollowResult{
		TargetID:       targetID,
		IsFollowing:    follow,
		FollowerCount:  adjusted(target.FollowerCount, follow),
		Changed:        true,
	}
	if actor, err := c.repo.GetProfile(ctx, actorID); err == nil {
		result.FollowingCount = clamp(actor.FollowingCount)
	}

	// Best-effort authoritative refresh; its failure is logged, never
	// surfaced, and never rolls back what the caller already saw.
	c.scheduleReconcile(targetID, actorID)

	return result, nil
}

// Recount overwrites a profile's denormalized counters with authoritative
// counts from the follows table.
func (c *Coordinator) Recount(ctx context.Context, userID string) error {
	followers, err := c.repo.CountFollowers(ctx, userID)
	if err != nil {
		return err
	}
	following, err := c.repo.CountFollowing(ctx, userID)
	if err != nil {
		return err
	}

	err = c.repo.UpdateProfile(ctx, userID, map[string]interface{}{
		"follower_count":  followers,
		"following_count": following,
	})
	if err != nil {
		return err
	}

	c.cache.InvalidateProfile(ctx, userID)
	return nil
}

// Wait blocks until all scheduled reconciliations have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// scheduleReconcile recounts the given profiles, asynchronously unless the
// coordinator was built for inline reconciliation.
func (c *Coordinator) scheduleReconcile(ids ...string) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		for _, id := range ids {
			if err := c.Recount(ctx, id); err != nil {
				metrics.ReconciliationRuns.WithLabelValues("failed").Inc()
				logger.Warn("counter reconciliation failed",
					logger.WithProfileID(id),
					zap.Error(err),
				)
				continue
			}
			metrics.ReconciliationRuns.WithLabelValues("ok").Inc()
		}
	}

	if c.syncReconcile {
		run()
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		run()
	}()
}

// notifyFollow writes a feed entry for the target. Best-effort: a failed
// notification never fails the follow.
func (c *Coordinator) notifyFollow(ctx context.Context, actorID string, target *models.User) {
	notification := models.Notification{
		UserID:  target.ID,
		Type:    models.NotificationFollow,
		ActorID: actorID,
		Message: "started following you",
	}
	if err := c.db.WithContext(ctx).Create(&notification).Error; err != nil {
		logger.Warn("follow notification write failed",
			logger.WithProfileID(target.ID),
			zap.Error(err),
		)
	}
}

// lockTarget acquires the per-target mutex guarding counter adjustments.
func (c *Coordinator) lockTarget(targetID string) func() {
	v, _ := c.targetLocks.LoadOrStore(targetID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// adjustCounter moves a denormalized counter by one in the given direction,
// clamped at a floor of zero on the way down.
func adjustCounter(tx *gorm.DB, userID, column string, up bool) error {
	expr := fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column)
	if up {
		expr = column + " + 1"
	}

	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(expr)).Error
}

func adjusted(count int, up bool) int {
	if up {
		return count + 1
	}
	return clamp(count - 1)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
