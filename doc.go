// Package vendora provides the Vendora marketplace API server.

// The API is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/profiles: Profile identifier resolution and view dispatch
// - internal/social: Follow/unfollow mutation coordination
// - internal/auth: Authentication and authorization services
// - internal/repository: Profile and follow graph persistence
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/cache: Redis profile caching
// - internal/middleware: HTTP middleware (request ids, access logs, metrics)
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package vendora
