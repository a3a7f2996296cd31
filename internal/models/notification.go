package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType is the kind of event a notification describes
type NotificationType string

const (
	NotificationFollow         NotificationType = "follow"
	NotificationReview         NotificationType = "review"
	NotificationOrder          NotificationType = "order"
	NotificationRoleConversion NotificationType = "role_conversion"
)

// Notification is a persisted feed entry for a user. Delivery is pull-based:
// clients poll the feed and the unseen count.
type Notification struct {
	ID     string `gorm:"primaryKey;type:text" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Type    NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	ActorID string           `gorm:"index" json:"actor_id"`
	Actor   *User            `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	// SubjectID points at the listing/order/request the event concerns,
	// empty for follow notifications.
	SubjectID string `json:"subject_id,omitempty"`
	Message   string `gorm:"type:text" json:"message"`

	Seen bool `gorm:"default:false;index" json:"seen"`
	Read bool `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

// ConversionStatus is the review state of a role conversion request
type ConversionStatus string

const (
	ConversionPending  ConversionStatus = "pending"
	ConversionApproved ConversionStatus = "approved"
	ConversionRejected ConversionStatus = "rejected"
)

// RoleConversionRequest is the only path by which a profile's role changes
// after creation: the owner requests elevation, an admin decides.
type RoleConversionRequest struct {
	ID     string `gorm:"primaryKey;type:text" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	RequestedRole Role   `gorm:"type:varchar(20);not null" json:"requested_role"`
	Reason        string `gorm:"type:text" json:"reason"`

	Status ConversionStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	// Admin who decided
	ReviewerID *string    `gorm:"index" json:"reviewer_id,omitempty"`
	Reviewer   *User      `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (r *RoleConversionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
