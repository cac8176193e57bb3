package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

// StoreInput carries store creation and update fields.
type StoreInput struct {
	BusinessName    string
	Category        string
	Description     string
	Location        string
	City            string
	Country         string
	WhatsappNumber  string
	BusinessEmail   string
	SocialHandles   map[string]string
	DeliveryOptions []string
	LogoURL         string
	CoverURL        string
	ThemeID         string
	IsActive        *bool
}

// StoreService manages storefronts. Each user owns at most one store.
type StoreService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewStoreService creates a new StoreService.
func NewStoreService(db *gorm.DB, logger *logrus.Logger) *StoreService {
	return &StoreService{db: db, logger: logger.WithField("component", "store")}
}

// CreateStore creates the user's store. A second store for the same user, or
// a WhatsApp number already claimed by another store, is a conflict.
func (s *StoreService) CreateStore(user *models.User, in StoreInput) (*models.Store, error) {
	if !user.IsVerified() {
		return nil, Forbidden("verify your email before creating a store")
	}
	if strings.TrimSpace(in.BusinessName) == "" {
		return nil, ValidationError("business name is required")
	}
	if strings.TrimSpace(in.WhatsappNumber) == "" {
		return nil, ValidationError("whatsapp number is required")
	}
	if err := validateDeliveryOptions(in.DeliveryOptions); err != nil {
		return nil, err
	}

	var existing models.Store
	err := s.db.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		return nil, Conflict("you already have a store")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Internal(err)
	}

	slug, err := s.uniqueSlug(in.BusinessName)
	if err != nil {
		return nil, err
	}

	store := &models.Store{
		UserID:          user.ID,
		BusinessName:    in.BusinessName,
		Slug:            slug,
		Category:        in.Category,
		Description:     in.Description,
		Location:        in.Location,
		City:            in.City,
		Country:         in.Country,
		WhatsappNumber:  in.WhatsappNumber,
		BusinessEmail:   in.BusinessEmail,
		SocialHandles:   datatypes.NewJSONType(normalizeSocialHandles(in.SocialHandles)),
		DeliveryOptions: datatypes.NewJSONSlice(in.DeliveryOptions),
		LogoURL:         in.LogoURL,
		CoverURL:        in.CoverURL,
		ThemeID:         in.ThemeID,
		IsActive:        true,
	}

	if err := s.db.Create(store).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("whatsapp number is already in use")
		}
		return nil, Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"store_id": store.ID, "slug": store.Slug}).Info("store created")
	return store, nil
}

// UpdateStore applies partial updates to the user's store. The slug is stable
// across business name changes.
func (s *StoreService) UpdateStore(user *models.User, in StoreInput) (*models.Store, error) {
	store, err := s.GetByUser(user.ID)
	if err != nil {
		return nil, err
	}
	if err := validateDeliveryOptions(in.DeliveryOptions); err != nil {
		return nil, err
	}

	if in.BusinessName != "" {
		store.BusinessName = in.BusinessName
	}
	if in.Category != "" {
		store.Category = in.Category
	}
	if in.Description != "" {
		store.Description = in.Description
	}
	if in.Location != "" {
		store.Location = in.Location
	}
	if in.City != "" {
		store.City = in.City
	}
	if in.Country != "" {
		store.Country = in.Country
	}
	if in.WhatsappNumber != "" {
		store.WhatsappNumber = in.WhatsappNumber
	}
	if in.BusinessEmail != "" {
		store.BusinessEmail = in.BusinessEmail
	}
	if in.SocialHandles != nil {
		store.SocialHandles = datatypes.NewJSONType(normalizeSocialHandles(in.SocialHandles))
	}
	if in.DeliveryOptions != nil {
		store.DeliveryOptions = datatypes.NewJSONSlice(in.DeliveryOptions)
	}
	if in.LogoURL != "" {
		store.LogoURL = in.LogoURL
	}
	if in.CoverURL != "" {
		store.CoverURL = in.CoverURL
	}
	if in.ThemeID != "" {
		store.ThemeID = in.ThemeID
	}
	if in.IsActive != nil {
		store.IsActive = *in.IsActive
	}

	if err := s.db.Save(store).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Conflict("whatsapp number is already in use")
		}
		return nil, Internal(err)
	}
	return store, nil
}

// Deactivate hides the user's store from the public storefront. Products stay
// in place and the store can be reactivated through UpdateStore.
func (s *StoreService) Deactivate(user *models.User) error {
	store, err := s.GetByUser(user.ID)
	if err != nil {
		return err
	}
	if err := s.db.Model(store).Update("is_active", false).Error; err != nil {
		return Internal(err)
	}
	s.logger.WithField("store_id", store.ID).Info("store deactivated")
	return nil
}

// GetByUser returns the user's store.
func (s *StoreService) GetByUser(userID uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := s.db.Where("user_id = ?", userID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("store not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &store, nil
}

// GetBySlug returns an active store with its active products, for the public
// storefront page.
func (s *StoreService) GetBySlug(slug string) (*models.Store, error) {
	var store models.Store
	err := s.db.Where("slug = ? AND is_active = ?", slug, true).
		Preload("Products", "is_active = ?", true).
		First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("store not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &store, nil
}

// uniqueSlug slugifies the name and appends -2, -3, ... until no existing
// store claims it.
func (s *StoreService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := s.db.Model(&models.Store{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", Internal(err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func validateDeliveryOptions(options []string) error {
	for _, opt := range options {
		valid := false
		for _, allowed := range models.DeliveryOptionValues {
			if opt == allowed {
				valid = true
				break
			}
		}
		if !valid {
			return ValidationError("invalid delivery option: " + opt)
		}
	}
	return nil
}

// normalizeSocialHandles strips leading @ from handle-style platforms and
// forces an https scheme on link-style ones.
func normalizeSocialHandles(handles map[string]string) map[string]string {
	if handles == nil {
		return nil
	}
	out := make(map[string]string, len(handles))
	for platform, value := range handles {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch platform {
		case "instagram", "twitter", "tiktok":
			value = strings.TrimPrefix(value, "@")
		case "facebook":
			if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
				value = "https://" + value
			}
		}
		out[platform] = value
	}
	return out
}
