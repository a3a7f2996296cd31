package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// createListing inserts a listing row directly, bypassing the handler
func (suite *HandlersTestSuite) createListing(sellerID, title string, priceCents int64, stock int) *models.Listing {
	listing := &models.Listing{
		SellerID:   sellerID,
		Title:      title,
		Category:   "ceramics",
		PriceCents: priceCents,
		Currency:   "USD",
		Stock:      stock,
		Status:     models.ListingStatusActive,
	}
	require.NoError(suite.T(), suite.db.Create(listing).Error)
	return listing
}

// =============================================================================
// LISTING TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestCreateListing() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/listings", gin.H{
		"title":       "Hand-thrown mug",
		"description": "Stoneware, 350ml",
		"category":    "ceramics",
		"price_cents": 2400,
		"stock":       10,
	}, suite.carol.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	body := suite.decode(w)
	listing := body["listing"].(map[string]interface{})
	assert.Equal(t, "Hand-thrown mug", listing["title"])
	assert.Equal(t, "USD", listing["currency"])
	assert.Equal(t, "active", listing["status"])
	assert.Equal(t, suite.carol.ID, listing["seller_id"])

	assert.Equal(t, 1, suite.reloadUser(suite.carol.ID).ListingCount)
}

func (suite *HandlersTestSuite) TestCreateListingRequiresSellerRole() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/listings", gin.H{
		"title":       "Not allowed",
		"price_cents": 100,
	}, suite.alice.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestCreateListingBrandCanSell() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/listings", gin.H{
		"title":       "Brand drop",
		"price_cents": 9900,
	}, suite.dana.ID)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func (suite *HandlersTestSuite) TestCreateListingValidation() {
	t := suite.T()

	// Missing price
	w := suite.request("POST", "/api/v1/listings", gin.H{"title": "No price"}, suite.carol.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Bad currency
	w = suite.request("POST", "/api/v1/listings", gin.H{
		"title":       "Bad currency",
		"price_cents": 100,
		"currency":    "DOLLARS",
	}, suite.carol.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestGetListing() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Vase", 5600, 3)

	w := suite.request("GET", "/api/v1/listings/"+listing.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	got := body["listing"].(map[string]interface{})
	assert.Equal(t, "Vase", got["title"])

	seller := got["seller"].(map[string]interface{})
	assert.Equal(t, "carol", seller["username"])
}

func (suite *HandlersTestSuite) TestGetListingNotFound() {
	t := suite.T()

	w := suite.request("GET", "/api/v1/listings/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestListListings() {
	t := suite.T()

	suite.createListing(suite.carol.ID, "Mug", 2400, 5)
	suite.createListing(suite.dana.ID, "Tote", 1800, 5)

	archived := suite.createListing(suite.carol.ID, "Old plate", 900, 0)
	require.NoError(t, suite.db.Model(archived).
		Update("status", models.ListingStatusArchived).Error)

	w := suite.request("GET", "/api/v1/listings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.Len(t, body["listings"], 2)

	// Seller filter
	w = suite.request("GET", "/api/v1/listings?seller="+suite.dana.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	listings := body["listings"].([]interface{})
	require.Len(t, listings, 1)
	assert.Equal(t, "Tote", listings[0].(map[string]interface{})["title"])
}

func (suite *HandlersTestSuite) TestUpdateListing() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("PATCH", "/api/v1/listings/"+listing.ID, gin.H{
		"price_cents": 2800,
		"status":      "draft",
	}, suite.carol.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.EqualValues(t, 2800, updated.PriceCents)
	assert.Equal(t, models.ListingStatusDraft, updated.Status)
}

func (suite *HandlersTestSuite) TestUpdateListingOwnerOnly() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("PATCH", "/api/v1/listings/"+listing.ID, gin.H{
		"price_cents": 1,
	}, suite.dana.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateListingRejectsBadValues() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("PATCH", "/api/v1/listings/"+listing.ID, gin.H{
		"price_cents": -5,
	}, suite.carol.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = suite.request("PATCH", "/api/v1/listings/"+listing.ID, gin.H{
		"status": "vaporized",
	}, suite.carol.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteListing() {
	t := suite.T()

	require.NoError(t, suite.db.Model(&models.User{}).
		Where("id = ?", suite.carol.ID).
		UpdateColumn("listing_count", 1).Error)
	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("DELETE", "/api/v1/listings/"+listing.ID, nil, suite.carol.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// Soft-deleted rows drop out of normal queries
	var count int64
	suite.db.Model(&models.Listing{}).Where("id = ?", listing.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	assert.Equal(t, 0, suite.reloadUser(suite.carol.ID).ListingCount)
}

func (suite *HandlersTestSuite) TestDeleteListingOwnerOnly() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("DELETE", "/api/v1/listings/"+listing.ID, nil, suite.alice.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
