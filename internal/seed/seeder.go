package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/vendora/backend/internal/logger"
	"github.com/vendora/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic marketplace data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating profiles...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating demo storefronts...")
	if err := s.seedDemoProfiles(); err != nil {
		return fmt.Errorf("failed to seed demo profiles: %w", err)
	}

	log("Creating listings...")
	listings, err := s.seedListings(users, 400)
	if err != nil {
		return fmt.Errorf("failed to seed listings: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 500); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating reviews...")
	if err := s.seedReviews(users, listings, 800); err != nil {
		return fmt.Errorf("failed to seed reviews: %w", err)
	}

	log("Creating orders...")
	if err := s.seedOrders(users, listings, 300); err != nil {
		return fmt.Errorf("failed to seed orders: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a small fixed set of profiles
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
		role        models.Role
	}{
		{"alice", "alice@example.com", "Alice Smith", models.RoleUser},
		{"bob", "bob@example.com", "Bob Johnson", models.RolePersonalSeller},
		{"acme", "ops@acme.example.com", "Acme Supply Co", models.RoleBrand},
		{"diana", "diana@example.com", "Diana Prince", models.RoleSeller},
		{"root", "admin@example.com", "Site Admin", models.RoleAdmin},
	}

	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			Role:         spec.role,
			PasswordHash: &hashedPasswordStr,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
	}

	return s.seedDemoProfiles()
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"notifications",
		"role_conversion_requests",
		"orders",
		"reviews",
		"listings",
		"follows",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// seedUsers creates profiles with realistic data across every role
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed profiles, skipping creation",
			zap.Int64("seed_users", seedUserCount))
		return users, nil
	}

	// Role distribution roughly matching a real marketplace: mostly
	// buyers, a band of individual sellers, a few storefronts.
	rolePool := []models.Role{
		models.RoleUser, models.RoleUser, models.RoleUser, models.RoleUser, models.RoleUser,
		models.RolePersonalSeller, models.RolePersonalSeller,
		models.RoleSeller,
		models.RoleBrand,
		models.RoleCompany,
	}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Ensure unique username/email
		var existingUser models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Location:     fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			Role:         rolePool[rand.Intn(len(rolePool))],
			PasswordHash: &hashedPasswordStr,
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		users = append(users, user)
	}

	logger.Log.Info("Created seed profiles", zap.Int("count", len(users)))
	return users, nil
}

// seedDemoProfiles creates the mock- prefixed demo storefronts shown in
// marketing tours. Follow mutations against these IDs are no-ops, so
// demo traffic never touches real counters.
func (s *Seeder) seedDemoProfiles() error {
	demos := []struct {
		id          string
		username    string
		displayName string
		role        models.Role
	}{
		{models.MockIDPrefix + "storefront-demo", "demostore", "Demo Storefront", models.RoleSeller},
		{models.MockIDPrefix + "brand-demo", "demobrand", "Demo Brand", models.RoleBrand},
	}

	for _, d := range demos {
		var existing models.User
		if err := s.db.Where("id = ?", d.id).First(&existing).Error; err == nil {
			continue
		}

		user := models.User{
			ID:            d.id,
			Email:         d.username + "@demo.vendora.internal",
			Username:      d.username,
			DisplayName:   d.displayName,
			Role:          d.role,
			Bio:           "This is a demo storefront used in product tours.",
			FollowerCount: 250 + rand.Intn(750),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create demo profile %s: %w", d.username, err)
		}
	}

	logger.Log.Info("Created demo storefronts", zap.Int("count", len(demos)))
	return nil
}

// seedListings creates listings owned by seller-capable profiles
func (s *Seeder) seedListings(users []models.User, count int) ([]models.Listing, error) {
	var listings []models.Listing

	var sellers []models.User
	for _, u := range users {
		if u.Role.CanSell() {
			sellers = append(sellers, u)
		}
	}
	if len(sellers) == 0 {
		return listings, nil
	}

	for i := 0; i < count; i++ {
		seller := sellers[rand.Intn(len(sellers))]

		listing := models.Listing{
			SellerID:    seller.ID,
			Title:       gofakeit.ProductName(),
			Description: gofakeit.ProductDescription(),
			Category:    gofakeit.ProductCategory(),
			PriceCents:  int64(500 + rand.Intn(200000)),
			Currency:    "USD",
			Stock:       rand.Intn(200),
			Status:      models.ListingStatusActive,
			ImageURL:    gofakeit.URL(),
		}

		createdAt := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now())
		listing.CreatedAt = createdAt
		listing.UpdatedAt = createdAt

		if err := s.db.Create(&listing).Error; err != nil {
			return nil, fmt.Errorf("failed to create listing: %w", err)
		}

		s.db.Model(&seller).Update("listing_count", gorm.Expr("listing_count + 1"))
		listings = append(listings, listing)
	}

	logger.Log.Info("Created listings",
		zap.Int("listing_count", len(listings)),
		zap.Int("seller_count", len(sellers)))
	return listings, nil
}

// seedFollows creates follow edges and keeps the denormalized counters
// consistent with them
func (s *Seeder) seedFollows(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	created := 0
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		target := users[rand.Intn(len(users))]
		if follower.ID == target.ID {
			continue
		}

		var existing models.Follow
		err := s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, target.ID).First(&existing).Error
		if err == nil {
			continue
		}

		follow := models.Follow{
			FollowerID: follower.ID,
			FolloweeID: target.ID,
		}
		if err := s.db.Create(&follow).Error; err != nil {
			return fmt.Errorf("failed to create follow: %w", err)
		}

		s.db.Model(&models.User{}).Where("id = ?", target.ID).
			Update("follower_count", gorm.Expr("follower_count + 1"))
		s.db.Model(&models.User{}).Where("id = ?", follower.ID).
			Update("following_count", gorm.Expr("following_count + 1"))
		created++
	}

	logger.Log.Info("Created follows", zap.Int("count", created))
	return nil
}

// seedReviews creates reviews and maintains each listing's aggregate rating
func (s *Seeder) seedReviews(users []models.User, listings []models.Listing, count int) error {
	if len(users) == 0 || len(listings) == 0 {
		return nil
	}

	reviewTemplates := []string{
		"Exactly as described, fast shipping",
		"Great quality for the price",
		"Would buy again",
		"Packaging could be better but the product is solid",
		"Five stars, seller was very responsive",
		"Decent, took a while to arrive",
	}

	created := 0
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		listing := listings[rand.Intn(len(listings))]
		if author.ID == listing.SellerID {
			continue
		}

		var existing models.Review
		err := s.db.Where("listing_id = ? AND author_id = ?", listing.ID, author.ID).First(&existing).Error
		if err == nil {
			continue
		}

		var body string
		if rand.Float32() < 0.5 {
			body = reviewTemplates[rand.Intn(len(reviewTemplates))]
		} else {
			body = gofakeit.HipsterSentence()
		}

		review := models.Review{
			ListingID: listing.ID,
			AuthorID:  author.ID,
			Rating:    1 + rand.Intn(5),
			Comment:   body,
		}

		createdAt := gofakeit.DateRange(listing.CreatedAt, time.Now())
		review.CreatedAt = createdAt
		review.UpdatedAt = createdAt

		if err := s.db.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		created++
	}

	// Recompute aggregates once at the end instead of per insert
	for _, listing := range listings {
		var stats struct {
			Count int64
			Avg   float64
		}
		s.db.Model(&models.Review{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("listing_id = ?", listing.ID).
			Scan(&stats)
		s.db.Model(&models.Listing{}).Where("id = ?", listing.ID).Updates(map[string]interface{}{
			"review_count":   stats.Count,
			"average_rating": stats.Avg,
		})
	}

	logger.Log.Info("Created reviews", zap.Int("count", created))
	return nil
}

// seedOrders creates orders in a mix of states
func (s *Seeder) seedOrders(users []models.User, listings []models.Listing, count int) error {
	if len(users) == 0 || len(listings) == 0 {
		return nil
	}

	statuses := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPaid,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	}

	created := 0
	for i := 0; i < count; i++ {
		buyer := users[rand.Intn(len(users))]
		listing := listings[rand.Intn(len(listings))]
		if buyer.ID == listing.SellerID {
			continue
		}

		quantity := 1 + rand.Intn(3)
		order := models.Order{
			BuyerID:    buyer.ID,
			ListingID:  listing.ID,
			Quantity:   quantity,
			TotalCents: listing.PriceCents * int64(quantity),
			Currency:   listing.Currency,
			Status:     statuses[rand.Intn(len(statuses))],
		}

		createdAt := gofakeit.DateRange(listing.CreatedAt, time.Now())
		order.CreatedAt = createdAt
		order.UpdatedAt = createdAt

		if err := s.db.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		created++
	}

	logger.Log.Info("Created orders", zap.Int("count", created))
	return nil
}
