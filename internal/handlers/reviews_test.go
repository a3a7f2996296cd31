package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// =============================================================================
// REVIEW TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestCreateReview() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{
		"rating":  4,
		"comment": "Lovely glaze",
	}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	body := suite.decode(w)
	review := body["review"].(map[string]interface{})
	assert.EqualValues(t, 4, review["rating"])
	assert.Equal(t, "Lovely glaze", review["comment"])

	// Aggregate refreshed in the same transaction
	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 1, updated.ReviewCount)
	assert.InDelta(t, 4.0, updated.AverageRating, 0.001)
}

func (suite *HandlersTestSuite) TestCreateReviewAveragesAcrossAuthors() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 4}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)
	w = suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 2}, suite.bob.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 2, updated.ReviewCount)
	assert.InDelta(t, 3.0, updated.AverageRating, 0.001)
}

func (suite *HandlersTestSuite) TestCreateReviewOwnListingForbidden() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 5}, suite.carol.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestCreateReviewOncePerListing() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 4}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 1}, suite.alice.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestCreateReviewValidation() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	for _, rating := range []int{0, 6} {
		w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": rating}, suite.alice.ID)
		assert.Equal(t, http.StatusBadRequest, w.Code, rating)
	}
}

func (suite *HandlersTestSuite) TestCreateReviewNotifiesSeller() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 5}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	var notification models.Notification
	err := suite.db.First(&notification, "user_id = ? AND type = ?",
		suite.carol.ID, models.NotificationReview).Error
	require.NoError(t, err)
	assert.Equal(t, suite.alice.ID, notification.ActorID)
	assert.Equal(t, listing.ID, notification.SubjectID)
}

func (suite *HandlersTestSuite) TestListReviews() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 4, "comment": "nice"}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/v1/listings/"+listing.ID+"/reviews", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	reviews := body["reviews"].([]interface{})
	require.Len(t, reviews, 1)

	review := reviews[0].(map[string]interface{})
	author := review["author"].(map[string]interface{})
	assert.Equal(t, "alice", author["username"])
}

func (suite *HandlersTestSuite) TestDeleteReview() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 4}, suite.alice.ID)
	require.Equal(t, http.StatusCreated, w.Code)
	w = suite.request("POST", "/api/v1/listings/"+listing.ID+"/reviews", gin.H{"rating": 2}, suite.bob.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.request("DELETE", "/api/v1/listings/"+listing.ID+"/reviews", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Listing
	require.NoError(t, suite.db.First(&updated, "id = ?", listing.ID).Error)
	assert.Equal(t, 1, updated.ReviewCount)
	assert.InDelta(t, 2.0, updated.AverageRating, 0.001)
}

func (suite *HandlersTestSuite) TestDeleteReviewNotFound() {
	t := suite.T()

	listing := suite.createListing(suite.carol.ID, "Mug", 2400, 5)

	w := suite.request("DELETE", "/api/v1/listings/"+listing.ID+"/reviews", nil, suite.alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
