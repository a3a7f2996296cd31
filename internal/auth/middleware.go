package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/database"
	"github.com/vendora/backend/internal/models"
)

// Middleware validates the bearer token, loads the actor and stores both
// "user_id" and "user" on the context for downstream handlers.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.actorFromRequest(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", &user)
		c.Next()
	}
}

// OptionalMiddleware resolves the actor when a valid token is present but
// lets anonymous requests through. Public profile views use it so
// follow-state checks and redirect-to-self work for signed-in actors.
func (s *Service) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := s.actorFromRequest(c); err == nil {
			var user models.User
			if err := database.DB.First(&user, "id = ?", userID).Error; err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", &user)
			}
		}
		c.Next()
	}
}

// AdminMiddleware rejects actors whose role is not admin. Must run after
// Middleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists || user.(*models.User).Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin_required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// actorFromRequest extracts and validates the bearer token
func (s *Service) actorFromRequest(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrInvalidToken
	}
	return s.ValidateToken(strings.TrimPrefix(header, "Bearer "))
}
