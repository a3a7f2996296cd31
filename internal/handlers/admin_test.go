package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// requestConversion opens a conversion request and returns its id
func (suite *HandlersTestSuite) requestConversion(userID, role string) string {
	w := suite.request("POST", "/api/v1/me/conversions", gin.H{
		"requested_role": role,
		"reason":         "I make ceramics",
	}, userID)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := suite.decode(w)
	return body["request"].(map[string]interface{})["id"].(string)
}

// =============================================================================
// ROLE CONVERSION TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestRequestRoleConversion() {
	t := suite.T()

	id := suite.requestConversion(suite.alice.ID, "seller")

	var request models.RoleConversionRequest
	require.NoError(t, suite.db.First(&request, "id = ?", id).Error)
	assert.Equal(t, models.ConversionPending, request.Status)
	assert.Equal(t, models.RoleSeller, request.RequestedRole)

	// The request alone does not move the role
	assert.Equal(t, models.RoleUser, suite.reloadUser(suite.alice.ID).Role)
}

func (suite *HandlersTestSuite) TestRequestRoleConversionInvalidRole() {
	t := suite.T()

	for _, role := range []string{"admin", "user", "moderator"} {
		w := suite.request("POST", "/api/v1/me/conversions", gin.H{
			"requested_role": role,
		}, suite.alice.ID)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, role)
	}
}

func (suite *HandlersTestSuite) TestRequestRoleConversionCurrentRole() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/me/conversions", gin.H{
		"requested_role": "seller",
	}, suite.carol.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestRequestRoleConversionOnePendingAtATime() {
	t := suite.T()

	suite.requestConversion(suite.alice.ID, "seller")

	w := suite.request("POST", "/api/v1/me/conversions", gin.H{
		"requested_role": "brand",
	}, suite.alice.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestGetMyConversionRequests() {
	t := suite.T()

	suite.requestConversion(suite.alice.ID, "seller")

	w := suite.request("GET", "/api/v1/me/conversions", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	requests := body["requests"].([]interface{})
	require.Len(t, requests, 1)
	assert.Equal(t, "pending", requests[0].(map[string]interface{})["status"])
}

func (suite *HandlersTestSuite) TestListConversionRequestsAdminOnly() {
	t := suite.T()

	w := suite.request("GET", "/api/v1/admin/conversions", nil, suite.alice.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.request("GET", "/api/v1/admin/conversions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestListConversionRequests() {
	t := suite.T()

	suite.requestConversion(suite.alice.ID, "seller")
	suite.requestConversion(suite.bob.ID, "brand")

	w := suite.request("GET", "/api/v1/admin/conversions", nil, suite.root.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Len(t, body["requests"], 2)
}

func (suite *HandlersTestSuite) TestApproveConversionChangesRole() {
	t := suite.T()

	id := suite.requestConversion(suite.alice.ID, "personal_seller")

	w := suite.request("POST", "/api/v1/admin/conversions/"+id, gin.H{
		"approve": true,
	}, suite.root.ID)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, models.RolePersonalSeller, suite.reloadUser(suite.alice.ID).Role)

	var request models.RoleConversionRequest
	require.NoError(t, suite.db.First(&request, "id = ?", id).Error)
	assert.Equal(t, models.ConversionApproved, request.Status)
	require.NotNil(t, request.ReviewerID)
	assert.Equal(t, suite.root.ID, *request.ReviewerID)
	assert.NotNil(t, request.DecidedAt)

	// The decision lands in the requester's feed
	var notification models.Notification
	err := suite.db.First(&notification, "user_id = ? AND type = ?",
		suite.alice.ID, models.NotificationRoleConversion).Error
	require.NoError(t, err)
}

func (suite *HandlersTestSuite) TestRejectConversionKeepsRole() {
	t := suite.T()

	id := suite.requestConversion(suite.alice.ID, "seller")

	w := suite.request("POST", "/api/v1/admin/conversions/"+id, gin.H{
		"approve": false,
	}, suite.root.ID)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, models.RoleUser, suite.reloadUser(suite.alice.ID).Role)

	var request models.RoleConversionRequest
	require.NoError(t, suite.db.First(&request, "id = ?", id).Error)
	assert.Equal(t, models.ConversionRejected, request.Status)
}

func (suite *HandlersTestSuite) TestDecideConversionTwiceConflicts() {
	t := suite.T()

	id := suite.requestConversion(suite.alice.ID, "seller")

	w := suite.request("POST", "/api/v1/admin/conversions/"+id, gin.H{"approve": true}, suite.root.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("POST", "/api/v1/admin/conversions/"+id, gin.H{"approve": false}, suite.root.ID)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestDecideConversionNotFound() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/admin/conversions/does-not-exist", gin.H{"approve": true}, suite.root.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// ADMIN RECOUNT TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestAdminRecountProfile() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	// Drift the stored counter away from the follows table
	require.NoError(t, suite.db.Model(&models.User{}).
		Where("id = ?", suite.bob.ID).
		UpdateColumn("follower_count", 999).Error)

	w = suite.request("POST", "/api/v1/admin/profiles/"+suite.bob.ID+"/recount", nil, suite.root.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	profile := body["profile"].(map[string]interface{})
	assert.EqualValues(t, 1, profile["follower_count"])
	assert.Equal(t, 1, suite.reloadUser(suite.bob.ID).FollowerCount)
}

func (suite *HandlersTestSuite) TestAdminRecountAdminOnly() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/admin/profiles/"+suite.bob.ID+"/recount", nil, suite.alice.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
