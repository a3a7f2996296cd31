package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendora/backend/internal/auth"
	"github.com/vendora/backend/internal/cache"
	"github.com/vendora/backend/internal/config"
	"github.com/vendora/backend/internal/database"
	"github.com/vendora/backend/internal/handlers"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/middleware"
	"github.com/vendora/backend/internal/storage"
	"github.com/vendora/backend/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("vendora server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	// Database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Auth
	if cfg.JWTSecret == "" {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService([]byte(cfg.JWTSecret))

	// Redis profile cache; the service degrades to DB-only reads without it
	redisCache, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Warn("Redis unavailable, profile cache disabled", zap.Error(err))
	}
	defer redisCache.Close()

	// Tracing
	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		SampleRatio: 1.0,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	h := handlers.NewHandlers(database.DB, authService, redisCache)

	// S3 avatar storage; optional in local dev
	if cfg.AWSBucket != "" {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 uploader", err)
		}
		if err := uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Warn("S3 bucket access failed, image uploads will fail", zap.Error(err))
		}
		h.SetUploader(uploader)
	} else {
		logger.Log.Info("AWS_BUCKET not set, image uploads disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("vendora-backend"))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "vendora-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Profile pages. Public with optional auth: the bare route resolves the
	// signed-in user's own profile, identifier routes take usernames or ids
	// and permanently redirect aliases to the canonical username URL.
	r.GET("/profile", authService.OptionalMiddleware(), h.GetProfile)
	r.GET("/profile/:identifier", authService.OptionalMiddleware(), h.GetProfile)
	r.GET("/profile/:identifier/followers", authService.OptionalMiddleware(), h.GetFollowers)
	r.GET("/profile/:identifier/following", authService.OptionalMiddleware(), h.GetFollowing)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", authService.Middleware(), h.Me)
		}

		me := api.Group("/me")
		{
			me.Use(authService.Middleware())
			me.PATCH("", h.UpdateProfile)
			me.PUT("/username", h.ChangeUsername)
			me.POST("/avatar", h.UploadAvatar)
			me.POST("/conversions", h.RequestRoleConversion)
			me.GET("/conversions", h.GetMyConversionRequests)
		}

		profilesGroup := api.Group("/profiles")
		{
			profilesGroup.GET("/search", authService.OptionalMiddleware(), h.SearchProfiles)
			profilesGroup.GET("/trending", authService.OptionalMiddleware(), h.GetTrendingProfiles)
			profilesGroup.POST("/:id/follow", authService.Middleware(), h.FollowProfile)
			profilesGroup.DELETE("/:id/follow", authService.Middleware(), h.UnfollowProfile)
		}

		listings := api.Group("/listings")
		{
			listings.GET("", h.ListListings)
			listings.GET("/:id", h.GetListing)
			listings.GET("/:id/reviews", h.ListReviews)

			listings.POST("", authService.Middleware(), h.CreateListing)
			listings.PATCH("/:id", authService.Middleware(), h.UpdateListing)
			listings.DELETE("/:id", authService.Middleware(), h.DeleteListing)
			listings.POST("/:id/reviews", authService.Middleware(), h.CreateReview)
			listings.DELETE("/:id/reviews", authService.Middleware(), h.DeleteReview)
			listings.POST("/:id/orders", authService.Middleware(), h.CreateOrder)
		}

		orders := api.Group("/orders")
		{
			orders.Use(authService.Middleware())
			orders.GET("", h.ListOrders)
			orders.PATCH("/:id", h.UpdateOrderStatus)
		}

		notifications := api.Group("/notifications")
		{
			notifications.Use(authService.Middleware())
			notifications.GET("", h.GetNotifications)
			notifications.GET("/counts", h.GetNotificationCounts)
			notifications.PATCH("/:id", h.MarkNotificationRead)
			notifications.POST("/read", h.MarkAllNotificationsRead)
		}

		admin := api.Group("/admin")
		{
			admin.Use(authService.Middleware(), auth.AdminMiddleware())
			admin.GET("/conversions", h.ListConversionRequests)
			admin.POST("/conversions/:id", h.DecideConversionRequest)
			admin.POST("/profiles/:id/recount", h.AdminRecountProfile)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("graceful shutdown failed", err)
	}
}
