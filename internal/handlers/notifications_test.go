package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// =============================================================================
// NOTIFICATION TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestFollowWritesNotification() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var notification models.Notification
	err := suite.db.First(&notification, "user_id = ? AND type = ?",
		suite.bob.ID, models.NotificationFollow).Error
	require.NoError(t, err)
	assert.Equal(t, suite.alice.ID, notification.ActorID)
	assert.False(t, notification.Seen)
	assert.False(t, notification.Read)
}

func (suite *HandlersTestSuite) TestGetNotificationsMarksSeen() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/notifications/counts", nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.EqualValues(t, 1, body["unseen"])
	assert.EqualValues(t, 1, body["unread"])

	// Fetching the feed clears the unseen badge but not unread
	w = suite.request("GET", "/api/v1/notifications", nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	notifications := body["notifications"].([]interface{})
	require.Len(t, notifications, 1)

	actor := notifications[0].(map[string]interface{})["actor"].(map[string]interface{})
	assert.Equal(t, "alice", actor["username"])

	w = suite.request("GET", "/api/v1/notifications/counts", nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body = suite.decode(w)
	assert.EqualValues(t, 0, body["unseen"])
	assert.EqualValues(t, 1, body["unread"])
}

func (suite *HandlersTestSuite) TestFeedIsScopedToOwner() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/notifications", nil, suite.carol.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.Len(t, body["notifications"], 0)
}

func (suite *HandlersTestSuite) TestMarkNotificationRead() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var notification models.Notification
	require.NoError(t, suite.db.First(&notification, "user_id = ?", suite.bob.ID).Error)

	w = suite.request("PATCH", "/api/v1/notifications/"+notification.ID, nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, suite.db.First(&notification, "id = ?", notification.ID).Error)
	assert.True(t, notification.Read)
	assert.True(t, notification.Seen)
}

func (suite *HandlersTestSuite) TestMarkNotificationReadOwnerOnly() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var notification models.Notification
	require.NoError(t, suite.db.First(&notification, "user_id = ?", suite.bob.ID).Error)

	// Someone else's notification reads as missing
	w = suite.request("PATCH", "/api/v1/notifications/"+notification.ID, nil, suite.carol.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestMarkAllNotificationsRead() {
	t := suite.T()

	for _, actor := range []string{suite.alice.ID, suite.carol.ID, suite.dana.ID} {
		w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, actor)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := suite.request("POST", "/api/v1/notifications/read", nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/notifications/counts", nil, suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	body := suite.decode(w)
	assert.EqualValues(t, 0, body["unseen"])
	assert.EqualValues(t, 0, body["unread"])
}

func (suite *HandlersTestSuite) TestNotificationsRequireAuth() {
	t := suite.T()

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/notifications"},
		{"GET", "/api/v1/notifications/counts"},
		{"POST", "/api/v1/notifications/read"},
	} {
		w := suite.request(route.method, route.path, gin.H{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}
