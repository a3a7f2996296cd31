package profiles

import (
	"context"
	"errors"
	"strings"

	"github.com/vendora/backend/internal/cache"
	"github.com/vendora/backend/internal/metrics"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/repository"
)

// Account ids issued at creation are 28-character opaque strings, so any
// shorter space-free identifier is assumed to be a username first. This is a
// documented heuristic, not a guess; short ids that collide with it are
// handled by the id fallback in Resolve.
const accountIDLength = 28

var (
	// ErrNoIdentifier is returned when neither a route identifier nor a
	// signed-in actor is available.
	ErrNoIdentifier = errors.New("no profile identifier provided")

	// ErrProfileNotFound is returned when every attempted lookup path missed.
	ErrProfileNotFound = errors.New("profile not found")
)

// ResolvedVia records which lookup path produced the profile.
type ResolvedVia string

const (
	ViaUsername ResolvedVia = "username"
	ViaID       ResolvedVia = "id"
	ViaSelf     ResolvedVia = "self"
)

// Resolution is the normalized result of resolving a raw route identifier.
type Resolution struct {
	Profile *models.User
	Via     ResolvedVia

	// CanonicalPath is the preferred URL for the profile, username-based
	// when a handle exists. Redirect is set when the request arrived on a
	// non-canonical path and should be answered with a permanent redirect,
	// so the alias never re-enters browser history.
	CanonicalPath string
	Redirect      bool
}

// Resolver translates a single opaque route string into a loaded profile,
// trying the most likely interpretation first. Lookups read through the
// profile cache and repopulate it on a repository hit.
type Resolver struct {
	repo  repository.ProfileRepository
	cache *cache.RedisClient
}

// NewResolver creates a resolver backed by the given profile store. The
// cache may be nil; resolution then always reaches the repository.
func NewResolver(repo repository.ProfileRepository, redisCache *cache.RedisClient) *Resolver {
	return &Resolver{repo: repo, cache: redisCache}
}

// LooksLikeUsername reports whether identifier should be tried as a handle
// before an id: non-empty after trimming, shorter than an opaque account id,
// and free of spaces.
func LooksLikeUsername(identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false
	}
	if len(identifier) >= accountIDLength {
		return false
	}
	return !strings.Contains(identifier, " ")
}

// Resolve loads the profile named by identifier. Username-shaped identifiers
// are looked up as handles first and fall back to an id lookup, so short ids
// still resolve. An empty identifier resolves the signed-in actor's own
// profile when one is available.
//
// Resolution is idempotent: the same identifier against an unchanged backing
// profile yields the same normalized result.
func (r *Resolver) Resolve(ctx context.Context, identifier, actorID string) (*Resolution, error) {
	identifier = strings.TrimSpace(identifier)

	if identifier == "" {
		if actorID == "" {
			metrics.ResolverLookups.WithLabelValues("none", "invalid").Inc()
			return nil, ErrNoIdentifier
		}
		// Default to the actor's own profile; the caller redirects to self.
		profile, err := r.lookupByID(ctx, actorID)
		if err != nil {
			return nil, r.miss("self", err)
		}
		res := r.finish(profile, ViaSelf)
		res.Redirect = true
		metrics.ResolverLookups.WithLabelValues("self", "hit").Inc()
		return res, nil
	}

	if LooksLikeUsername(identifier) {
		profile, err := r.lookupByUsername(ctx, identifier)
		if err == nil {
			metrics.ResolverLookups.WithLabelValues("username", "hit").Inc()
			return r.finish(profile, ViaUsername), nil
		}
		if !errors.Is(err, repository.ErrProfileNotFound) {
			return nil, r.miss("username", err)
		}
		// Short ids collide with the username heuristic; fall back.
		profile, err = r.lookupByID(ctx, identifier)
		if err != nil {
			return nil, r.miss("username", err)
		}
		metrics.ResolverLookups.WithLabelValues("id_fallback", "hit").Inc()
		return r.finish(profile, ViaID), nil
	}

	profile, err := r.lookupByID(ctx, identifier)
	if err != nil {
		return nil, r.miss("id", err)
	}
	metrics.ResolverLookups.WithLabelValues("id", "hit").Inc()
	return r.finish(profile, ViaID), nil
}

// lookupByID loads a profile by id, serving from the cache when possible and
// populating it after a repository hit.
func (r *Resolver) lookupByID(ctx context.Context, id string) (*models.User, error) {
	if cached := r.cache.GetProfile(ctx, id); cached != nil {
		return cached, nil
	}

	profile, err := r.repo.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetProfile(ctx, profile)
	return profile, nil
}

// lookupByUsername loads a profile by handle. A cached pointer whose profile
// no longer carries the requested username is stale from a rename and is
// ignored in favor of the repository.
func (r *Resolver) lookupByUsername(ctx context.Context, username string) (*models.User, error) {
	if cached := r.cache.GetProfileByHandle(ctx, username); cached != nil {
		if strings.EqualFold(cached.Username, username) {
			return cached, nil
		}
	}

	profile, err := r.repo.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.cache.SetProfile(ctx, profile)
	return profile, nil
}

// finish normalizes the loaded profile and computes the canonical path.
// Profiles fetched via id that carry a handle redirect to the username URL,
// making id-based URLs self-healing aliases.
func (r *Resolver) finish(profile *models.User, via ResolvedVia) *Resolution {
	normalize(profile)

	res := &Resolution{
		Profile:       profile,
		Via:           via,
		CanonicalPath: CanonicalPath(profile),
	}

	if via == ViaID && profile.Username != "" {
		res.Redirect = true
	}

	return res
}

// miss collapses every failed lookup into the user-facing not-found state;
// transient store failures get the same treatment, per the error surface.
func (r *Resolver) miss(via string, err error) error {
	if errors.Is(err, repository.ErrProfileNotFound) {
		metrics.ResolverLookups.WithLabelValues(via, "miss").Inc()
		return ErrProfileNotFound
	}
	metrics.ResolverLookups.WithLabelValues(via, "error").Inc()
	return err
}

// normalize repairs fields a partially-written record may have left
// malformed: counters never render negative, the role always falls inside
// the rendering domain of the view dispatcher.
func normalize(profile *models.User) {
	if profile.FollowerCount < 0 {
		profile.FollowerCount = 0
	}
	if profile.FollowingCount < 0 {
		profile.FollowingCount = 0
	}
}

// CanonicalPath returns the preferred URL for a profile: username-based when
// a handle exists, id-based otherwise.
func CanonicalPath(profile *models.User) string {
	if profile.Username != "" {
		return "/profile/" + profile.Username
	}
	return "/profile/" + profile.ID
}
