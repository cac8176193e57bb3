package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/cache"
	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

const (
	paymentTimeout = 15 * time.Second
	plansCacheKey  = "plans:active"
	plansCacheTTL  = time.Hour
)

// PaymentService drives premium upgrades through an external payment
// provider. Payments are referenced by an opaque ID generated here; the
// provider callback verifies against that reference.
type PaymentService struct {
	db        *gorm.DB
	cache     *cache.Redis
	client    *http.Client
	baseURL   string
	secretKey string
	logger    *logrus.Entry
}

// NewPaymentService creates a new PaymentService. cache may be nil.
func NewPaymentService(db *gorm.DB, redis *cache.Redis, baseURL, secretKey string, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		db:        db,
		cache:     redis,
		client:    &http.Client{Timeout: paymentTimeout},
		baseURL:   baseURL,
		secretKey: secretKey,
		logger:    logger.WithField("component", "payment"),
	}
}

// ListPlans returns active plans, memoized in Redis for an hour.
func (s *PaymentService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	if s.cache != nil {
		var cached []models.Plan
		if ok, err := s.cache.GetJSON(ctx, plansCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var plans []models.Plan
	if err := s.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error; err != nil {
		return nil, Internal(err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, plansCacheKey, plans, plansCacheTTL); err != nil {
			s.logger.WithError(err).Debug("failed to memoize plans")
		}
	}
	return plans, nil
}

type providerInitRequest struct {
	TxRef       string  `json:"tx_ref"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	RedirectURL string  `json:"redirect_url"`
	Email       string  `json:"email"`
}

type providerInitResponse struct {
	Status string `json:"status"`
	Data   struct {
		Link string `json:"link"`
	} `json:"data"`
}

// InitiatePayment creates a pending payment record and asks the provider for
// a checkout link.
func (s *PaymentService) InitiatePayment(ctx context.Context, user *models.User, planID uuid.UUID, redirectURL string) (string, *models.SubscriptionPayment, error) {
	var plan models.Plan
	err := s.db.Where("id = ? AND is_active = ?", planID, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, NotFound("plan not found")
	}
	if err != nil {
		return "", nil, Internal(err)
	}

	ref, err := utils.GenerateToken(16)
	if err != nil {
		return "", nil, Internal(err)
	}

	payment := &models.SubscriptionPayment{
		UserID:      user.ID,
		Amount:      plan.Price,
		Currency:    "USD",
		Status:      models.PaymentStatusPending,
		ReferenceID: ref,
	}
	if err := s.db.Create(payment).Error; err != nil {
		return "", nil, Internal(err)
	}

	body, err := json.Marshal(providerInitRequest{
		TxRef:       ref,
		Amount:      plan.Price,
		Currency:    "USD",
		RedirectURL: redirectURL,
		Email:       user.Email,
	})
	if err != nil {
		return "", nil, Internal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return "", nil, Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", nil, External("payment provider unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, External(fmt.Sprintf("payment provider returned status %d", resp.StatusCode), nil)
	}

	var payload providerInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", nil, External("invalid payment provider response", err)
	}
	if payload.Status != "success" || payload.Data.Link == "" {
		return "", nil, External("payment initiation rejected", nil)
	}
	return payload.Data.Link, payment, nil
}

type providerVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	} `json:"data"`
}

// VerifyPayment checks the provider's record for the reference. A successful
// payment marks the record paid and flips the user to premium.
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) (*models.SubscriptionPayment, error) {
	var payment models.SubscriptionPayment
	err := s.db.Where("reference_id = ?", reference).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("payment not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	if payment.Status == models.PaymentStatusPaid {
		return &payment, nil
	}

	url := fmt.Sprintf("%s/transactions/verify_by_reference?tx_ref=%s", s.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Internal(err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, External("payment provider unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, External(fmt.Sprintf("payment provider returned status %d", resp.StatusCode), nil)
	}

	var payload providerVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, External("invalid payment provider response", err)
	}

	if payload.Status != "success" || payload.Data.Status != "successful" {
		payment.Status = models.PaymentStatusFailed
		if err := s.db.Save(&payment).Error; err != nil {
			return nil, Internal(err)
		}
		return &payment, nil
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentStatusPaid
		payment.PaidAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", payment.UserID).
			Update("is_premium", true).Error
	})
	if err != nil {
		return nil, Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": payment.UserID, "reference": reference}).Info("premium activated")
	return &payment, nil
}
