package services

import (
	"testing"
	"time"

	"github.com/example/storehub/internal/models"
)

func TestGenerateAndVerifyCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	code, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code.Code) != verificationCodeLength {
		t.Fatalf("expected %d-digit code, got %q", verificationCodeLength, code.Code)
	}

	if err := svc.Verify("ada@example.com", code.Code, models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	if _, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("generate: %v", err)
	}

	err := svc.Verify("ada@example.com", "000000", models.CodeTypeEmailVerification)
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	code, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	expired := time.Now().Add(-time.Minute)
	if err := db.Model(code).Update("expires_at", expired).Error; err != nil {
		t.Fatalf("expire code: %v", err)
	}

	err = svc.Verify("ada@example.com", code.Code, models.CodeTypeEmailVerification)
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error for expired code, got %v", err)
	}
}

func TestVerifyIsSingleUse(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	code, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.Verify("ada@example.com", code.Code, models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	err = svc.Verify("ada@example.com", code.Code, models.CodeTypeEmailVerification)
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected replay to fail, got %v", err)
	}
}

func TestGenerateInvalidatesPriorCodes(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	first, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	// step past the resend throttle
	backdated := time.Now().Add(-2 * resendThrottle)
	if err := db.Model(first).Update("created_at", backdated).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	second, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}

	err = svc.Verify("ada@example.com", first.Code, models.CodeTypeEmailVerification)
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected superseded code to fail, got %v", err)
	}
	if err := svc.Verify("ada@example.com", second.Code, models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("latest code must verify: %v", err)
	}
}

func TestGenerateThrottlesResends(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	if _, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err := svc.Generate("ada@example.com", models.CodeTypeEmailVerification)
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindConflict {
		t.Fatalf("expected throttle conflict, got %v", err)
	}
}

func TestCleanupRemovesSpentCodes(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationService(db, newTestLogger())

	used, err := svc.Generate("used@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("generate used: %v", err)
	}
	if err := svc.Verify("used@example.com", used.Code, models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("verify: %v", err)
	}

	expired, err := svc.Generate("expired@example.com", models.CodeTypeEmailVerification)
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	if err := db.Model(expired).Update("expires_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}

	if _, err := svc.Generate("live@example.com", models.CodeTypeEmailVerification); err != nil {
		t.Fatalf("generate live: %v", err)
	}

	removed, err := svc.Cleanup()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	var remaining int64
	db.Model(&models.VerificationCode{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected 1 live code left, got %d", remaining)
	}
}
