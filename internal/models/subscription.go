package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Plan is a premium subscription plan registered with the payment provider.
type Plan struct {
	BaseModel
	UserID         uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ProviderPlanID string    `json:"provider_plan_id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	Interval       string    `json:"interval"`
	Duration       int       `json:"duration"`
	IsActive       bool      `json:"is_active"`
}

// Payment statuses.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// SubscriptionPayment records a bank-transfer payment toward a premium plan.
type SubscriptionPayment struct {
	BaseModel
	UserID      uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Amount      float64        `json:"amount"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	ReferenceID string         `gorm:"uniqueIndex" json:"reference_id"`
	PaidAt      *time.Time     `json:"paid_at"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}
