package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
	"gorm.io/gorm"
)

// CreateListing creates a listing owned by the signed-in seller
//
// POST /listings
func (h *Handlers) CreateListing(c *gin.Context) {
	userID := c.GetString("user_id")

	actor, ok := c.Get("user")
	if !ok {
		util.RespondUnauthorized(c)
		return
	}
	user := actor.(*models.User)
	if !user.Role.CanSell() {
		util.RespondForbidden(c, "only seller accounts can create listings")
		return
	}

	var req struct {
		Title       string `json:"title" binding:"required,min=3,max=140"`
		Description string `json:"description"`
		Category    string `json:"category"`
		PriceCents  int64  `json:"price_cents" binding:"required,gt=0"`
		Currency    string `json:"currency"`
		Stock       int    `json:"stock" binding:"gte=0"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		util.RespondValidationError(c, "currency", "currency must be a 3-letter ISO code")
		return
	}

	listing := models.Listing{
		SellerID:    userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Status:      models.ListingStatusActive,
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("listing_count", gorm.Expr("listing_count + 1")).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to create listing")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), userID)
	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// GetListing returns a single listing with its seller
//
// GET /listings/:id
func (h *Handlers) GetListing(c *gin.Context) {
	var listing models.Listing
	err := h.db.WithContext(c.Request.Context()).
		Preload("Seller").
		First(&listing, "id = ?", c.Param("id")).Error
	if err != nil {
		util.RespondNotFound(c, "listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// ListListings lists active listings, optionally filtered by seller or
// category
//
// GET /listings?seller=...&category=...
func (h *Handlers) ListListings(c *gin.Context) {
	limit, offset := pagination(c)

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Listing{}).
		Where("status = ?", models.ListingStatusActive)

	if seller := c.Query("seller"); seller != "" {
		query = query.Where("seller_id = ?", seller)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var listings []models.Listing
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"limit":    limit,
		"offset":   offset,
	})
}

// UpdateListing applies a partial update to a listing owned by the caller
//
// PATCH /listings/:id
func (h *Handlers) UpdateListing(c *gin.Context) {
	userID := c.GetString("user_id")

	var listing models.Listing
	if err := h.db.WithContext(c.Request.Context()).First(&listing, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "listing")
		return
	}
	if listing.SellerID != userID {
		util.RespondForbidden(c, "you do not own this listing")
		return
	}

	var req struct {
		Title       *string               `json:"title,omitempty"`
		Description *string               `json:"description,omitempty"`
		Category    *string               `json:"category,omitempty"`
		PriceCents  *int64                `json:"price_cents,omitempty"`
		Stock       *int                  `json:"stock,omitempty"`
		ImageURL    *string               `json:"image_url,omitempty"`
		Status      *models.ListingStatus `json:"status,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			util.RespondValidationError(c, "price_cents", "price must be positive")
			return
		}
		fields["price_cents"] = *req.PriceCents
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			util.RespondValidationError(c, "stock", "stock cannot be negative")
			return
		}
		fields["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ListingStatusDraft, models.ListingStatusActive,
			models.ListingStatusSoldOut, models.ListingStatusArchived:
			fields["status"] = *req.Status
		default:
			util.RespondValidationError(c, "status", "unknown listing status")
			return
		}
	}

	if len(fields) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	err := h.db.WithContext(c.Request.Context()).
		Model(&listing).
		Updates(fields).Error
	if err != nil {
		util.RespondInternalError(c, "failed to update listing")
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// DeleteListing soft-deletes a listing owned by the caller
//
// DELETE /listings/:id
func (h *Handlers) DeleteListing(c *gin.Context) {
	userID := c.GetString("user_id")

	var listing models.Listing
	if err := h.db.WithContext(c.Request.Context()).First(&listing, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "listing")
		return
	}
	if listing.SellerID != userID {
		util.RespondForbidden(c, "you do not own this listing")
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&listing).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("listing_count",
				gorm.Expr("CASE WHEN listing_count > 0 THEN listing_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to delete listing")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "listing_id": listing.ID})
}
