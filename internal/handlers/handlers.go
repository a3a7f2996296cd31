package handlers

import (
	"github.com/vendora/backend/internal/auth"
	"github.com/vendora/backend/internal/cache"
	"github.com/vendora/backend/internal/profiles"
	"github.com/vendora/backend/internal/repository"
	"github.com/vendora/backend/internal/social"
	"github.com/vendora/backend/internal/storage"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db          *gorm.DB
	repo        repository.ProfileRepository
	resolver    *profiles.Resolver
	coordinator *social.Coordinator
	authService *auth.Service
	cache       *cache.RedisClient
	uploader    *storage.S3Uploader
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, authService *auth.Service, redisCache *cache.RedisClient) *Handlers {
	repo := repository.NewProfileRepository(db)
	return &Handlers{
		db:          db,
		repo:        repo,
		resolver:    profiles.NewResolver(repo, redisCache),
		coordinator: social.NewCoordinator(db, repo, redisCache),
		authService: authService,
		cache:       redisCache,
	}
}

// SetUploader sets the S3 uploader for avatar and listing images
func (h *Handlers) SetUploader(uploader *storage.S3Uploader) {
	h.uploader = uploader
}

// SetCoordinator overrides the social mutation coordinator. Tests use this
// to install a coordinator with inline reconciliation.
func (h *Handlers) SetCoordinator(c *social.Coordinator) {
	h.coordinator = c
}
