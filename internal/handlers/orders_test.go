package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// placeOrder creates an order through the handler and returns its id
func (suite *HandlersTestSuite) placeOrder(listingID, buyerID string, quantity int) string {
	w := suite.request("POST", "/api/v1/listings/"+listingID+"/orders", gin.H{
		"quantity": quantity,
	}, buyerID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.decode(w)
	return body["order"].(map[string]interface{})["id"].(string)
}

// =============================================================================
// ORDER TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestCreateOrder() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/orders", gin.H{
		"quantity": 2,
	}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	body := suite.decode(w)
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "pending", order["status"])
	assert.EqualValues(t, 4800, order["total_cents"])
	assert.Equal(t, "USD", order["currency"])

	// Stock moves in the same transaction
	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, models.ListingStatusActive, updated.Status)
}

func (suite *HandlersTestSuite) TestCreateOrderExhaustsStock() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 2)

	suite.placeOrder(listing.ID, suite.alice.ID, 2)

	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, models.ListingStatusSoldOut, updated.Status)

	// Sold out listings reject further orders
	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/orders", gin.H{
		"quantity": 1,
	}, suite.bob.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestCreateOrderInsufficientStock() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 1)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/orders", gin.H{
		"quantity": 3,
	}, suite.alice.ID)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Nothing committed
	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 1, updated.Stock)

	var orders int64
	suite.db.Model(&models.Order{}).Count(&orders)
	assert.EqualValues(t, 0, orders)
}

func (suite *HandlersTestSuite) TestCreateOrderOwnListingForbidden() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/orders", gin.H{
		"quantity": 1,
	}, suite.carol.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestCreateOrderUnknownListing() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/listings/does-not-exist/orders", gin.H{
		"quantity": 1,
	}, suite.alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestCreateOrderNotifiesSeller() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	var notification models.Notification
	err := suite.db.First(&notification, "user_id = ? AND type = ?",
		suite.carol.ID, models.NotificationOrder).Error
	require.NoError(t, err)
	assert.Equal(t, suite.alice.ID, notification.ActorID)
	assert.Equal(t, orderID, notification.SubjectID)
}

func (suite *HandlersTestSuite) TestListOrders() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	suite.placeOrder(listing.ID, suite.alice.ID, 1)
	suite.placeOrder(listing.ID, suite.bob.ID, 1)

	// Buyer view
	w := suite.request("GET", "/api/v1/orders", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.Len(t, body["orders"], 1)

	// Seller view
	w = suite.request("GET", "/api/v1/orders?as=seller", nil, suite.carol.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	assert.Len(t, body["orders"], 2)

	// Uninvolved account sees nothing
	w = suite.request("GET", "/api/v1/orders", nil, suite.dana.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	assert.Len(t, body["orders"], 0)
}

func (suite *HandlersTestSuite) TestSellerAdvancesOrder() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	for _, status := range []string{"paid", "shipped", "delivered"} {
		w := suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": status}, suite.carol.ID)
		require.Equal(t, http.StatusOK, w.Code, status)
	}

	var order models.Order
	require.NoError(t, suite.db.First(&order, "id = ?", orderID).Error)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)
}

func (suite *HandlersTestSuite) TestBuyerCancelsPendingOrder() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	w := suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": "cancelled"}, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	require.NoError(t, suite.db.First(&order, "id = ?", orderID).Error)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
}

func (suite *HandlersTestSuite) TestBuyerCannotAdvanceOrder() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	w := suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": "paid"}, suite.alice.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestInvalidOrderTransitions() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	// pending -> shipped skips payment
	w := suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": "shipped"}, suite.carol.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Delivered orders are terminal
	for _, status := range []string{"paid", "shipped", "delivered"} {
		w = suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": status}, suite.carol.ID)
		require.Equal(t, http.StatusOK, w.Code, status)
	}
	w = suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": "cancelled"}, suite.carol.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateOrderStrangerForbidden() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	orderID := suite.placeOrder(listing.ID, suite.alice.ID, 1)

	w := suite.request("PATCH", "/api/v1/orders/"+orderID, gin.H{"status": "cancelled"}, suite.bob.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
