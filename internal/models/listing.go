package models

import (
	"time"

	"gorm.io/gorm"
)

// ListingStatus represents the lifecycle state of a listing
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSoldOut  ListingStatus = "sold_out"
	ListingStatusArchived ListingStatus = "archived"
)

// Listing represents a product offered by a seller, brand or company.
type Listing struct {
	ID       string `gorm:"primaryKey;type:text" json:"id"`
	SellerID string `gorm:"not null;index" json:"seller_id"`
	Seller   User   `gorm:"foreignKey:SellerID" json:"seller,omitempty"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"index" json:"category"`

	// Price in minor units (cents); currency is an ISO 4217 code.
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Currency   string `gorm:"type:varchar(3);default:USD" json:"currency"`
	Stock      int    `gorm:"default:0" json:"stock"`

	ImageURL string `json:"image_url"`

	Status ListingStatus `gorm:"type:varchar(20);default:active;index" json:"status"`

	// Denormalized review stats, repaired by recount the same way follow
	// counters are.
	ReviewCount   int     `gorm:"default:0" json:"review_count"`
	AverageRating float64 `gorm:"default:0" json:"average_rating"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Review represents a buyer's review of a listing.
type Review struct {
	ID        string  `gorm:"primaryKey;type:text" json:"id"`
	ListingID string  `gorm:"not null;index:idx_reviews_pair,unique" json:"listing_id"`
	Listing   Listing `gorm:"foreignKey:ListingID" json:"-"`
	AuthorID  string  `gorm:"not null;index:idx_reviews_pair,unique" json:"author_id"`
	Author    User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderStatus represents the state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a narrow purchase record. Payment processing is delegated to an
// external provider; this row only tracks what the back-office needs.
type Order struct {
	ID        string  `gorm:"primaryKey;type:text" json:"id"`
	BuyerID   string  `gorm:"not null;index" json:"buyer_id"`
	Buyer     User    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	ListingID string  `gorm:"not null;index" json:"listing_id"`
	Listing   Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`

	Quantity   int    `gorm:"default:1" json:"quantity"`
	TotalCents int64  `gorm:"not null" json:"total_cents"`
	Currency   string `gorm:"type:varchar(3);default:USD" json:"currency"`

	Status OrderStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	if l.Status == "" {
		l.Status = ListingStatusActive
	}
	return nil
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = generateUUID()
	}
	return nil
}
