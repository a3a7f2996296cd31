package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendora/backend/internal/models"
)

// =============================================================================
// FOLLOW / UNFOLLOW TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestFollowProfile() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Equal(t, suite.bob.ID, body["target_id"])
	assert.Equal(t, true, body["is_following"])
	assert.Equal(t, true, body["changed"])
	assert.EqualValues(t, 1, body["follower_count"])
	assert.EqualValues(t, 1, body["following_count"])

	var edges int64
	suite.db.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", suite.alice.ID, suite.bob.ID).
		Count(&edges)
	assert.EqualValues(t, 1, edges)

	// Reconciliation runs inline in tests, so the stored counters are
	// already authoritative.
	assert.Equal(t, 1, suite.reloadUser(suite.bob.ID).FollowerCount)
	assert.Equal(t, 1, suite.reloadUser(suite.alice.ID).FollowingCount)
}

func (suite *HandlersTestSuite) TestUnfollowProfile() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.request("DELETE", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Equal(t, false, body["is_following"])
	assert.Equal(t, true, body["changed"])
	assert.EqualValues(t, 0, body["follower_count"])

	assert.Equal(t, 0, suite.reloadUser(suite.bob.ID).FollowerCount)
	assert.Equal(t, 0, suite.reloadUser(suite.alice.ID).FollowingCount)
}

func (suite *HandlersTestSuite) TestRepeatedFollowIsIdempotent() {
	t := suite.T()

	for i := 0; i < 3; i++ {
		w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var edges int64
	suite.db.Model(&models.Follow{}).Count(&edges)
	assert.EqualValues(t, 1, edges)
	assert.Equal(t, 1, suite.reloadUser(suite.bob.ID).FollowerCount)
}

func (suite *HandlersTestSuite) TestUnfollowWithoutEdge() {
	t := suite.T()

	w := suite.request("DELETE", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Equal(t, false, body["is_following"])
	assert.Equal(t, 0, suite.reloadUser(suite.bob.ID).FollowerCount)
}

func (suite *HandlersTestSuite) TestSelfFollowRejected() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.alice.ID+"/follow", nil, suite.alice.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestFollowUnknownProfile() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+accountID("missing")+"/follow", nil, suite.alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestFollowRequiresAuth() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/profiles/"+suite.bob.ID+"/follow", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestFollowMockProfileIsNoOp() {
	t := suite.T()

	demo := &models.User{
		ID:            models.MockIDPrefix + "storefront-demo",
		Email:         "demo@vendora.test",
		Username:      "demostore",
		DisplayName:   "Demo Store",
		Role:          models.RoleSeller,
		FollowerCount: 500,
	}
	require.NoError(t, suite.db.Create(demo).Error)

	w := suite.request("POST", "/api/v1/profiles/"+demo.ID+"/follow", nil, suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	body := suite.decode(w)
	assert.Equal(t, true, body["mocked"])
	assert.Equal(t, false, body["changed"])
	assert.Equal(t, false, body["is_following"])

	var edges int64
	suite.db.Model(&models.Follow{}).Count(&edges)
	assert.EqualValues(t, 0, edges)
	assert.Equal(t, 500, suite.reloadUser(demo.ID).FollowerCount)
}
