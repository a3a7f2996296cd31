package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/vendora/backend/internal/errors"
	"github.com/vendora/backend/internal/social"
	"github.com/vendora/backend/internal/util"
)

// FollowProfile follows the target profile. The response carries the
// adjusted counters so clients can update their display immediately; the
// denormalized counters are reconciled against the follows table shortly
// after, off the request path.
//
// POST /profiles/:id/follow
func (h *Handlers) FollowProfile(c *gin.Context) {
	h.toggleFollow(c, true)
}

// UnfollowProfile removes the follow edge to the target profile
//
// DELETE /profiles/:id/follow
func (h *Handlers) UnfollowProfile(c *gin.Context) {
	h.toggleFollow(c, false)
}

func (h *Handlers) toggleFollow(c *gin.Context, follow bool) {
	actorID := c.GetString("user_id")
	targetID := c.Param("id")

	if targetID == "" {
		util.RespondBadRequest(c, "target profile id is required")
		return
	}

	result, err := h.coordinator.ToggleFollow(c.Request.Context(), actorID, targetID, follow)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrSelfFollow):
			util.RespondBadRequest(c, "cannot follow yourself")
		case errors.Is(err, social.ErrTargetNotFound):
			util.RespondNotFound(c, "profile")
		default:
			operation := "unfollow"
			if follow {
				operation = "follow"
			}
			util.RespondWithAPIError(c, apierrors.MutationFailed(operation))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
