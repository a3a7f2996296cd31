package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateOrder places an order against a listing. Stock is decremented in
// the same transaction that writes the order row, so an oversold listing
// rejects the order rather than going negative.
//
// POST /listings/:id/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	listingID := c.Param("id")

	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var order models.Order
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.First(&listing, "id = ?", listingID).Error; err != nil {
			return err
		}
		if listing.SellerID == userID {
			return errSelfPurchase
		}
		if listing.Status != models.ListingStatusActive || listing.Stock < req.Quantity {
			return errOutOfStock
		}

		order = models.Order{
			BuyerID:    userID,
			ListingID:  listing.ID,
			Quantity:   req.Quantity,
			TotalCents: listing.PriceCents * int64(req.Quantity),
			Currency:   listing.Currency,
			Status:     models.OrderStatusPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		newStock := listing.Stock - req.Quantity
		fields := map[string]interface{}{"stock": newStock}
		if newStock == 0 {
			fields["status"] = models.ListingStatusSoldOut
		}
		return tx.Model(&listing).Updates(fields).Error
	})
	if err != nil {
		switch err {
		case errSelfPurchase:
			util.RespondForbidden(c, "you cannot buy your own listing")
		case errOutOfStock:
			util.RespondConflict(c, "order")
		case gorm.ErrRecordNotFound:
			util.RespondNotFound(c, "listing")
		default:
			util.RespondInternalError(c, "failed to create order")
		}
		return
	}

	h.notifyOrder(c, &order)

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders lists the caller's orders, as buyer or as seller
//
// GET /orders?as=buyer|seller
func (h *Handlers) ListOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Order{}).
		Preload("Listing")

	if c.DefaultQuery("as", "buyer") == "seller" {
		query = query.Joins("JOIN listings ON listings.id = orders.listing_id").
			Where("listings.seller_id = ?", userID)
	} else {
		query = query.Where("orders.buyer_id = ?", userID)
	}

	var orders []models.Order
	err := query.Order("orders.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

// UpdateOrderStatus advances an order's status. Sellers move orders
// forward (paid, shipped, delivered); buyers may only cancel pending
// orders.
//
// PATCH /orders/:id
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var order models.Order
	err := h.db.WithContext(c.Request.Context()).
		Preload("Listing").
		First(&order, "id = ?", c.Param("id")).Error
	if err != nil {
		util.RespondNotFound(c, "order")
		return
	}

	isBuyer := order.BuyerID == userID
	isSeller := order.Listing.SellerID == userID
	if !isBuyer && !isSeller {
		util.RespondForbidden(c, "not your order")
		return
	}

	if !orderTransitionAllowed(order.Status, req.Status, isSeller) {
		util.RespondValidationError(c, "status",
			"cannot move order from "+string(order.Status)+" to "+string(req.Status))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&order).
		Update("status", req.Status).Error; err != nil {
		util.RespondInternalError(c, "failed to update order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

var (
	errSelfPurchase = errors.New("cannot buy own listing")
	errOutOfStock   = errors.New("listing out of stock")
)

// orderTransitionAllowed encodes the order state machine. Buyers only
// cancel pending orders; sellers walk the fulfilment chain forward.
func orderTransitionAllowed(from, to models.OrderStatus, isSeller bool) bool {
	if !isSeller {
		return from == models.OrderStatusPending && to == models.OrderStatusCancelled
	}

	switch from {
	case models.OrderStatusPending:
		return to == models.OrderStatusPaid || to == models.OrderStatusCancelled
	case models.OrderStatusPaid:
		return to == models.OrderStatusShipped || to == models.OrderStatusCancelled
	case models.OrderStatusShipped:
		return to == models.OrderStatusDelivered
	}
	return false
}

// notifyOrder writes a feed entry for the seller. Best-effort.
func (h *Handlers) notifyOrder(c *gin.Context, order *models.Order) {
	var listing models.Listing
	if err := h.db.WithContext(c.Request.Context()).First(&listing, "id = ?", order.ListingID).Error; err != nil {
		return
	}

	notification := models.Notification{
		UserID:    listing.SellerID,
		Type:      models.NotificationOrder,
		ActorID:   order.BuyerID,
		SubjectID: order.ID,
		Message:   "ordered " + listing.Title,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&notification).Error; err != nil {
		logger.Warn("order notification write failed",
			logger.WithListingID(listing.ID),
			zap.Error(err),
		)
	}
}
