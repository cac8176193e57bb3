package services

import (
	"fmt"
	"testing"
)

func TestQuotaWithoutStoreHasFullAllowance(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db)
	user := createTestUser(t, db, "owner@example.com", false)

	quota, err := svc.Available(user)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if quota.Unlimited {
		t.Fatal("free user must not be unlimited")
	}
	if quota.Remaining != FreeProductLimit {
		t.Fatalf("expected %d slots, got %d", FreeProductLimit, quota.Remaining)
	}
}

func TestQuotaCountsOnlyActiveProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db)
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	for i := 0; i < 3; i++ {
		createTestProduct(t, db, store, fmt.Sprintf("Product %d", i))
	}
	inactive := createTestProduct(t, db, store, "Hidden")
	if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	quota, err := svc.Available(user)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if quota.Remaining != FreeProductLimit-3 {
		t.Fatalf("expected %d remaining, got %d", FreeProductLimit-3, quota.Remaining)
	}
}

func TestQuotaExhaustedBlocksCreation(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db)
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	for i := 0; i < FreeProductLimit; i++ {
		createTestProduct(t, db, store, fmt.Sprintf("Product %d", i))
	}

	quota, err := svc.Available(user)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if quota.Remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", quota.Remaining)
	}

	err = svc.EnsureCanCreate(user)
	appErr, ok := AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Kind != KindQuota {
		t.Fatalf("expected quota kind, got %d", appErr.Kind)
	}
	if appErr.Code != 600 {
		t.Fatalf("expected code 600, got %d", appErr.Code)
	}
}

func TestPremiumUserIsUnlimited(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuotaService(db)
	user := createTestUser(t, db, "premium@example.com", true)
	store := createTestStore(t, db, user)

	for i := 0; i < FreeProductLimit+2; i++ {
		createTestProduct(t, db, store, fmt.Sprintf("Product %d", i))
	}

	quota, err := svc.Available(user)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if !quota.Unlimited {
		t.Fatal("premium user must be unlimited")
	}
	if err := svc.EnsureCanCreate(user); err != nil {
		t.Fatalf("premium creation should never be blocked: %v", err)
	}
}
