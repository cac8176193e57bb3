package services

import (
	"io"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storehub/internal/config"
	"github.com/example/storehub/internal/database"
	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testMetrics() *metrics.Metrics {
	return metrics.Registry("storehub_test")
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenTTL:  30 * 24 * time.Hour,
		RefreshTokenTTL: 90 * 24 * time.Hour,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, premium bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	user := &models.User{
		Email:           email,
		PasswordHash:    &hash,
		EmailVerifiedAt: &now,
		IsPremium:       premium,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestStore(t *testing.T, db *gorm.DB, user *models.User) *models.Store {
	t.Helper()
	store := &models.Store{
		UserID:         user.ID,
		BusinessName:   "Test Store",
		Slug:           "test-store-" + user.ID.String()[:8],
		City:           "Lagos",
		Country:        "NG",
		WhatsappNumber: "+23480000" + user.ID.String()[:4],
		IsActive:       true,
	}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func createTestProduct(t *testing.T, db *gorm.DB, store *models.Store, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		StoreID:  store.ID,
		Name:     name,
		Slug:     utils.Slugify(name) + "-" + store.ID.String()[:8],
		Price:    10,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
