package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReview posts a review on a listing and refreshes the listing's
// denormalized rating aggregate. One review per buyer per listing.
//
// POST /listings/:id/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	userID := c.GetString("user_id")
	listingID := c.Param("id")

	var req struct {
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var listing models.Listing
	if err := h.db.WithContext(c.Request.Context()).First(&listing, "id = ?", listingID).Error; err != nil {
		util.RespondNotFound(c, "listing")
		return
	}
	if listing.SellerID == userID {
		util.RespondForbidden(c, "you cannot review your own listing")
		return
	}

	var existing models.Review
	err := h.db.WithContext(c.Request.Context()).
		First(&existing, "listing_id = ? AND author_id = ?", listingID, userID).Error
	if err == nil {
		util.RespondConflict(c, "review")
		return
	}

	review := models.Review{
		ListingID: listingID,
		AuthorID:  userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	// The review row and the aggregate refresh commit together, the same
	// way follow edges commit with their counters.
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return refreshListingRating(tx, listingID)
	})
	if err != nil {
		util.RespondInternalError(c, "failed to create review")
		return
	}

	h.notifyReview(c, &listing, userID)

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListReviews lists reviews for a listing, newest first
//
// GET /listings/:id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	limit, offset := pagination(c)

	var reviews []models.Review
	err := h.db.WithContext(c.Request.Context()).
		Preload("Author").
		Where("listing_id = ?", c.Param("id")).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"limit":   limit,
		"offset":  offset,
	})
}

// DeleteReview removes the caller's review and refreshes the aggregate
//
// DELETE /listings/:id/reviews
func (h *Handlers) DeleteReview(c *gin.Context) {
	userID := c.GetString("user_id")
	listingID := c.Param("id")

	var review models.Review
	err := h.db.WithContext(c.Request.Context()).
		First(&review, "listing_id = ? AND author_id = ?", listingID, userID).Error
	if err != nil {
		util.RespondNotFound(c, "review")
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return refreshListingRating(tx, listingID)
	})
	if err != nil {
		util.RespondInternalError(c, "failed to delete review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "review_id": review.ID})
}

// refreshListingRating recomputes a listing's review count and average
// rating from the reviews table
func refreshListingRating(tx *gorm.DB, listingID string) error {
	var stats struct {
		Count int64
		Avg   float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
		Where("listing_id = ?", listingID).
		Scan(&stats).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"review_count":   stats.Count,
			"average_rating": stats.Avg,
		}).Error
}

// notifyReview writes a feed entry for the seller. Best-effort.
func (h *Handlers) notifyReview(c *gin.Context, listing *models.Listing, authorID string) {
	notification := models.Notification{
		UserID:    listing.SellerID,
		Type:      models.NotificationReview,
		ActorID:   authorID,
		SubjectID: listing.ID,
		Message:   "reviewed " + listing.Title,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&notification).Error; err != nil {
		logger.Warn("review notification write failed",
			logger.WithListingID(listing.ID),
			zap.Error(err),
		)
	}
}
