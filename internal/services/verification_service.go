package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

const (
	verificationCodeLength = 6
	verificationCodeTTL    = 10 * time.Minute
	resendThrottle         = 60 * time.Second
)

// VerificationService issues and checks short-lived email verification codes.
type VerificationService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(db *gorm.DB, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		db:     db,
		logger: logger.WithField("component", "verification"),
	}
}

// Generate creates a fresh code for (email, codeType). Any unused prior codes
// for the pair are invalidated so only the latest code can succeed. Requests
// within the resend throttle window are rejected.
func (s *VerificationService) Generate(email, codeType string) (*models.VerificationCode, error) {
	var latest models.VerificationCode
	err := s.db.Where("email = ? AND type = ?", email, codeType).
		Order("created_at DESC").
		First(&latest).Error
	if err == nil && time.Since(latest.CreatedAt) < resendThrottle {
		return nil, Conflict("please wait before requesting another code")
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, Internal(err)
	}

	code, err := utils.GenerateNumericCode(verificationCodeLength)
	if err != nil {
		return nil, Internal(err)
	}

	record := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Type:      codeType,
		ExpiresAt: time.Now().Add(verificationCodeTTL),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.VerificationCode{}).
			Where("email = ? AND type = ? AND is_used = ?", email, codeType, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": &now}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"email": email, "type": codeType}).Info("verification code issued")
	return record, nil
}

// Verify consumes a code. Expired or already-used codes fail; a successful
// verification marks the code used so it cannot be replayed.
func (s *VerificationService) Verify(email, code, codeType string) error {
	var record models.VerificationCode
	err := s.db.Where("email = ? AND code = ? AND type = ? AND is_used = ?", email, code, codeType, false).
		Order("created_at DESC").
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return ValidationError("invalid verification code")
	}
	if err != nil {
		return Internal(err)
	}
	if record.IsExpired() {
		return ValidationError("verification code has expired")
	}

	now := time.Now()
	if err := s.db.Model(&record).
		Updates(map[string]interface{}{"is_used": true, "used_at": &now}).Error; err != nil {
		return Internal(err)
	}
	return nil
}

// Cleanup deletes expired and consumed codes. Called on demand rather than
// from a scheduler.
func (s *VerificationService) Cleanup() (int64, error) {
	res := s.db.Where("expires_at < ? OR is_used = ?", time.Now(), true).
		Delete(&models.VerificationCode{})
	if res.Error != nil {
		return 0, Internal(res.Error)
	}
	return res.RowsAffected, nil
}
