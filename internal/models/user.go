package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the account variant that decides which profile template renders
// and which capabilities are offered. It is set to RoleUser at account
// creation and may only be changed through the admin conversion workflow.
type Role string

const (
	RoleUser           Role = "user"
	RolePersonalSeller Role = "personal_seller"
	RoleSeller         Role = "seller"
	RoleBrand          Role = "brand"
	RoleCompany        Role = "company"
	RoleAdmin          Role = "admin"
)

// Valid reports whether r is one of the closed set of role variants.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePersonalSeller, RoleSeller, RoleBrand, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// CanSell reports whether the role may own listings.
func (r Role) CanSell() bool {
	switch r {
	case RolePersonalSeller, RoleSeller, RoleBrand, RoleCompany:
		return true
	}
	return false
}

// MockIDPrefix marks placeholder/demo profiles. Social mutations against
// targets with this prefix are a defined no-op, not an error.
const MockIDPrefix = "mock-"

// IsMockID reports whether id belongs to a demo profile.
func IsMockID(id string) bool {
	return strings.HasPrefix(id, MockIDPrefix)
}

// UsernameCooldown is the minimum window between username changes,
// measured from UsernameLastChanged.
const UsernameCooldown = 30 * 24 * time.Hour

// User represents a Vendora account: buyer, seller, brand, company or admin.
type User struct {
	// ID is an opaque string, not a database uuid: demo profiles carry
	// the mock- prefix in their ids.
	ID    string `gorm:"primaryKey;type:text" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// Username is the optional human-readable handle. Unique
	// (case-insensitively) when present; profiles without one are only
	// reachable by id.
	Username            string     `gorm:"index" json:"username"`
	UsernameLastChanged *time.Time `json:"username_last_changed,omitempty"`

	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"`
	AvatarURL   string `json:"avatar_url"`

	Role Role `gorm:"type:varchar(20);default:user;index" json:"role"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Denormalized social counters cached alongside the follows table for
	// fast display. Eventually consistent: the social coordinator is the
	// only path allowed to move them, and repairs drift with an
	// authoritative recount after every committed mutation.
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	ListingCount   int `gorm:"default:0" json:"listing_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanChangeUsername reports whether the cooldown window has elapsed.
func (u *User) CanChangeUsername(now time.Time) bool {
	if u.UsernameLastChanged == nil {
		return true
	}
	return now.Sub(*u.UsernameLastChanged) >= UsernameCooldown
}

// Follow is a follower/followee edge. The follows table is the source of
// truth for the denormalized counters on User.
type Follow struct {
	ID         string `gorm:"primaryKey;type:text" json:"id"`
	FollowerID string `gorm:"not null;index:idx_follows_pair,unique" json:"follower_id"`
	FolloweeID string `gorm:"not null;index:idx_follows_pair,unique;index" json:"followee_id"`

	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
