package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestRoleConversion opens a conversion request for the signed-in user.
// This is the only way a profile's role changes after creation: the owner
// asks, an admin decides. One pending request at a time.
//
// POST /me/conversions
func (h *Handlers) RequestRoleConversion(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		RequestedRole models.Role `json:"requested_role" binding:"required"`
		Reason        string      `json:"reason" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !req.RequestedRole.Valid() || req.RequestedRole == models.RoleAdmin || req.RequestedRole == models.RoleUser {
		util.RespondValidationError(c, "requested_role",
			"requested role must be one of: personal_seller, seller, brand, company")
		return
	}

	actor, _ := c.Get("user")
	user := actor.(*models.User)
	if user.Role == req.RequestedRole {
		util.RespondConflict(c, "role conversion")
		return
	}

	var pending models.RoleConversionRequest
	err := h.db.WithContext(c.Request.Context()).
		First(&pending, "user_id = ? AND status = ?", userID, models.ConversionPending).Error
	if err == nil {
		util.RespondConflict(c, "role conversion request")
		return
	}

	request := models.RoleConversionRequest{
		UserID:        userID,
		RequestedRole: req.RequestedRole,
		Reason:        strings.TrimSpace(req.Reason),
		Status:        models.ConversionPending,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&request).Error; err != nil {
		util.RespondInternalError(c, "failed to create conversion request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// GetMyConversionRequests lists the caller's conversion requests
//
// GET /me/conversions
func (h *Handlers) GetMyConversionRequests(c *gin.Context) {
	userID := c.GetString("user_id")

	var requests []models.RoleConversionRequest
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversion requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListConversionRequests lists conversion requests for admin review
//
// GET /admin/conversions?status=pending
func (h *Handlers) ListConversionRequests(c *gin.Context) {
	limit, offset := pagination(c)

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.RoleConversionRequest{}).
		Preload("User")

	if status := c.DefaultQuery("status", string(models.ConversionPending)); status != "all" {
		query = query.Where("status = ?", status)
	}

	var requests []models.RoleConversionRequest
	err := query.Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load conversion requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

// DecideConversionRequest approves or rejects a pending conversion request.
// Approval moves the user's role inside the same transaction that records
// the decision.
//
// POST /admin/conversions/:id
func (h *Handlers) DecideConversionRequest(c *gin.Context) {
	reviewerID := c.GetString("user_id")

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var request models.RoleConversionRequest
	err := h.db.WithContext(c.Request.Context()).
		First(&request, "id = ?", c.Param("id")).Error
	if err != nil {
		util.RespondNotFound(c, "conversion request")
		return
	}
	if request.Status != models.ConversionPending {
		util.RespondConflict(c, "conversion request")
		return
	}

	status := models.ConversionRejected
	if req.Approve {
		status = models.ConversionApproved
	}
	now := time.Now()

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":      status,
			"reviewer_id": reviewerID,
			"decided_at":  now,
		}).Error; err != nil {
			return err
		}

		if !req.Approve {
			return nil
		}
		return tx.Model(&models.User{}).
			Where("id = ?", request.UserID).
			Update("role", request.RequestedRole).Error
	})
	if err != nil {
		util.RespondInternalError(c, "failed to decide conversion request")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), request.UserID)
	h.notifyConversionDecision(c, &request, status)

	c.JSON(http.StatusOK, gin.H{"request": request, "status": status})
}

// AdminRecountProfile forces an authoritative counter recount for a profile
//
// POST /admin/profiles/:id/recount
func (h *Handlers) AdminRecountProfile(c *gin.Context) {
	profileID := c.Param("id")

	if err := h.coordinator.Recount(c.Request.Context(), profileID); err != nil {
		util.RespondInternalError(c, "recount failed")
		return
	}

	profile, err := h.repo.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		util.RespondNotFound(c, "profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// notifyConversionDecision writes a feed entry for the requester. Best-effort.
func (h *Handlers) notifyConversionDecision(c *gin.Context, request *models.RoleConversionRequest, status models.ConversionStatus) {
	message := "your seller conversion request was rejected"
	if status == models.ConversionApproved {
		message = "your account is now a " + string(request.RequestedRole) + " account"
	}

	notification := models.Notification{
		UserID:    request.UserID,
		Type:      models.NotificationRoleConversion,
		SubjectID: request.ID,
		Message:   message,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&notification).Error; err != nil {
		logger.Warn("conversion notification write failed",
			logger.WithProfileID(request.UserID),
			zap.Error(err),
		)
	}
}
