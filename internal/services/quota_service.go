package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/example/storehub/internal/models"
)

// FreeProductLimit is the number of active products a non-premium store may
// hold.
const FreeProductLimit = 5

// SlotQuota reports how many product slots a user has left. Unlimited means
// Remaining is meaningless and must be ignored.
type SlotQuota struct {
	Unlimited bool `json:"unlimited"`
	Remaining int  `json:"remaining"`
}

// QuotaService enforces the freemium product limit.
type QuotaService struct {
	db *gorm.DB
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// Available returns the user's remaining product slots. Premium users are
// unlimited. A user without a store has the full free allowance.
func (s *QuotaService) Available(user *models.User) (SlotQuota, error) {
	if user.IsPremium {
		return SlotQuota{Unlimited: true}, nil
	}

	var store models.Store
	err := s.db.Where("user_id = ?", user.ID).First(&store).Error
	if err == gorm.ErrRecordNotFound {
		return SlotQuota{Remaining: FreeProductLimit}, nil
	}
	if err != nil {
		return SlotQuota{}, Internal(err)
	}

	var active int64
	if err := s.db.Model(&models.Product{}).
		Where("store_id = ? AND is_active = ?", store.ID, true).
		Count(&active).Error; err != nil {
		return SlotQuota{}, Internal(err)
	}

	remaining := FreeProductLimit - int(active)
	if remaining < 0 {
		remaining = 0
	}
	return SlotQuota{Remaining: remaining}, nil
}

// EnsureCanCreate fails with a quota error when the user has no free slots.
func (s *QuotaService) EnsureCanCreate(user *models.User) error {
	quota, err := s.Available(user)
	if err != nil {
		return err
	}
	if quota.Unlimited || quota.Remaining > 0 {
		return nil
	}
	return QuotaExceeded(fmt.Sprintf("free plan is limited to %d active products, upgrade to premium to add more", FreeProductLimit))
}
