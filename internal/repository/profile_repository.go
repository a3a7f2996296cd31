package repository

import (
	"context"
	"errors"

	"github.com/vendora/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// ProfileRepository handles all database operations for profiles and the
// follow graph. Pure request/response: no business rules live here.
type ProfileRepository interface {
	// Profile CRUD
	CreateProfile(ctx context.Context, user *models.User) error
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error

	// Profile queries
	SearchProfiles(ctx context.Context, query string, limit, offset int) ([]*models.User, error)
	GetTrendingProfiles(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Follow relationship
	CreateFollow(ctx context.Context, followerID, followeeID string) error
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)

	// Followers/Following
	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)

	// Authoritative counts, recomputed from the follows table
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

// profileRepository implements ProfileRepository
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// CreateProfile creates a new profile
func (r *profileRepository) CreateProfile(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Create(user).Error
}

// GetProfile gets a profile by ID
func (r *profileRepository) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}

	return &user, err
}

// GetProfileByEmail gets a profile by email (case-insensitive)
func (r *profileRepository) GetProfileByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}

	return &user, err
}

// GetProfileByUsername gets a profile by username (case-insensitive).
// Profiles without a handle are not reachable here.
func (r *profileRepository) GetProfileByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrProfileNotFound
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Where("username <> '' AND LOWER(username) = LOWER(?)", username).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}

	return &user, err
}

// UpdateProfile applies a partial field update
func (r *profileRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(fields).Error
}

// SearchProfiles searches profiles by username or display name
func (r *profileRepository) SearchProfiles(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	var users []*models.User

	searchPattern := "%" + query + "%"

	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(display_name) LIKE LOWER(?)", searchPattern, searchPattern).
		Order("follower_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, err
}

// GetTrendingProfiles gets profiles ordered by follower count
func (r *profileRepository) GetTrendingProfiles(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var users []*models.User

	err := r.db.WithContext(ctx).
		Order("follower_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, err
}

// CreateFollow creates a follow edge. Duplicate edges are ignored so a
// repeated follow stays idempotent at the storage layer.
func (r *profileRepository) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return ErrInvalidInput
	}

	follow := models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow).Error
}

// DeleteFollow deletes a follow edge
func (r *profileRepository) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

// IsFollowing checks if follower follows followee
func (r *profileRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error

	return count > 0, err
}

// GetFollowers gets profiles following the given profile
func (r *profileRepository) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User

	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, err
}

// GetFollowing gets profiles the given profile follows
func (r *profileRepository) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User

	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error

	return users, err
}

// CountFollowers counts follow edges pointing at the profile
func (r *profileRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Count(&count).Error

	return count, err
}

// CountFollowing counts follow edges originating from the profile
func (r *profileRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error

	return count, err
}
