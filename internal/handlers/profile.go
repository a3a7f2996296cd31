package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/vendora/backend/internal/errors"
	"github.com/vendora/backend/internal/metrics"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/profiles"
	"github.com/vendora/backend/internal/repository"
	"github.com/vendora/backend/internal/util"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,27}$`)

// GetProfile resolves a profile by route identifier and returns it with the
// template its role renders under.
//
// GET /profile/:identifier (public, optional auth)
// GET /profile (requires auth, resolves self)
//
// Requests that arrive on a non-canonical URL (an id URL for a profile that
// has a username, or the bare self route) are answered with a permanent
// redirect to the canonical username URL instead of a body, so the alias URL
// never sticks in browser history.
func (h *Handlers) GetProfile(c *gin.Context) {
	identifier := c.Param("identifier")
	actorID := c.GetString("user_id")

	res, err := h.resolver.Resolve(c.Request.Context(), identifier, actorID)
	if err != nil {
		switch {
		case errors.Is(err, profiles.ErrNoIdentifier):
			util.RespondWithAPIError(c, apierrors.InvalidIdentifier(""))
		case errors.Is(err, profiles.ErrProfileNotFound):
			util.RespondNotFound(c, "profile")
		default:
			util.RespondInternalError(c, "failed to load profile")
		}
		return
	}

	if res.Redirect && c.Request.URL.Path != res.CanonicalPath {
		metrics.ProfileRedirects.Inc()
		c.Redirect(http.StatusMovedPermanently, res.CanonicalPath)
		return
	}

	h.renderProfile(c, res)
}

// renderProfile writes the resolved profile response body
func (h *Handlers) renderProfile(c *gin.Context, res *profiles.Resolution) {
	profile := res.Profile
	actorID := c.GetString("user_id")

	isFollowing := false
	if actorID != "" && actorID != profile.ID {
		isFollowing, _ = h.repo.IsFollowing(c.Request.Context(), actorID, profile.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":        profile,
		"template":       profiles.TemplateForRole(profile.Role),
		"canonical_path": res.CanonicalPath,
		"resolved_via":   res.Via,
		"is_following":   isFollowing,
		"is_self":        actorID != "" && actorID == profile.ID,
	})
}

// UpdateProfile applies a partial update to the signed-in user's profile.
// Username and role are excluded: username goes through ChangeUsername and
// its cooldown, role only moves through the conversion workflow.
//
// PATCH /me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		DisplayName *string `json:"display_name,omitempty"`
		Bio         *string `json:"bio,omitempty"`
		Location    *string `json:"location,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		if strings.TrimSpace(*req.DisplayName) == "" {
			util.RespondValidationError(c, "display_name", "display name cannot be empty")
			return
		}
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}

	if len(fields) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := h.repo.UpdateProfile(c.Request.Context(), userID, fields); err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), userID)

	profile, err := h.repo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// ChangeUsername sets a new handle for the signed-in user. At most one
// change per 30 days, enforced against username_last_changed.
//
// PUT /me/username
func (h *Handlers) ChangeUsername(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	username := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(username) {
		util.RespondValidationError(c, "username",
			"username must be 3-27 characters of letters, digits, underscore or dot")
		return
	}

	profile, err := h.repo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.RespondNotFound(c, "profile")
		return
	}

	if strings.EqualFold(profile.Username, username) {
		c.JSON(http.StatusOK, gin.H{"profile": profile, "changed": false})
		return
	}

	now := time.Now()
	if !profile.CanChangeUsername(now) {
		nextAllowed := profile.UsernameLastChanged.Add(models.UsernameCooldown)
		util.RespondWithAPIError(c, apierrors.CooldownActive(
			"username can be changed again on "+nextAllowed.Format("2006-01-02")))
		return
	}

	if existing, err := h.repo.GetProfileByUsername(c.Request.Context(), username); err == nil && existing.ID != userID {
		util.RespondConflict(c, "username")
		return
	} else if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		util.RespondInternalError(c, "failed to check username")
		return
	}

	err = h.repo.UpdateProfile(c.Request.Context(), userID, map[string]interface{}{
		"username":              username,
		"username_last_changed": now,
	})
	if err != nil {
		util.RespondInternalError(c, "failed to change username")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), userID)

	profile, err = h.repo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.RespondInternalError(c, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":        profile,
		"changed":        true,
		"canonical_path": profiles.CanonicalPath(profile),
	})
}

// GetFollowers lists profiles following the resolved profile
//
// GET /profile/:identifier/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	h.listRelated(c, h.repo.GetFollowers, "followers")
}

// GetFollowing lists profiles the resolved profile follows
//
// GET /profile/:identifier/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	h.listRelated(c, h.repo.GetFollowing, "following")
}

func (h *Handlers) listRelated(
	c *gin.Context,
	fetch func(ctx context.Context, userID string, limit, offset int) ([]*models.User, error),
	key string,
) {
	// gin route params resolve the same way the profile page does, so
	// /profile/<username>/followers and /profile/<id>/followers both work.
	res, err := h.resolver.Resolve(c.Request.Context(), c.Param("identifier"), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) || errors.Is(err, profiles.ErrNoIdentifier) {
			util.RespondNotFound(c, "profile")
			return
		}
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	limit, offset := pagination(c)
	users, err := fetch(c.Request.Context(), res.Profile.ID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to load "+key)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		key:      users,
		"limit":  limit,
		"offset": offset,
	})
}

// SearchProfiles searches profiles by username or display name
//
// GET /profiles/search?q=...
func (h *Handlers) SearchProfiles(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		util.RespondBadRequest(c, "query parameter q is required")
		return
	}

	limit, offset := pagination(c)
	users, err := h.repo.SearchProfiles(c.Request.Context(), query, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": users,
		"query":    query,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetTrendingProfiles lists profiles ordered by follower count
//
// GET /profiles/trending
func (h *Handlers) GetTrendingProfiles(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.repo.GetTrendingProfiles(c.Request.Context(), limit, offset)
	if err != nil {
		util.RespondInternalError(c, "failed to load trending profiles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": users,
		"limit":    limit,
		"offset":   offset,
	})
}

// UploadAvatar replaces the signed-in user's avatar image
//
// POST /me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	userID := c.GetString("user_id")

	if h.uploader == nil {
		util.RespondInternalError(c, "avatar storage not configured")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "avatar file is required")
		return
	}
	if !isValidImageFile(file.Filename) {
		util.RespondValidationError(c, "avatar", "unsupported image format")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		util.RespondInternalError(c, "failed to read upload")
		return
	}

	result, err := h.uploader.UploadAvatar(c.Request.Context(), data, userID, file.Filename)
	if err != nil {
		util.RespondInternalError(c, "failed to store avatar")
		return
	}

	if err := h.repo.UpdateProfile(c.Request.Context(), userID, map[string]interface{}{
		"avatar_url": result.URL,
	}); err != nil {
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	h.cache.InvalidateProfile(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}

func isValidImageFile(filename string) bool {
	ext := strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
