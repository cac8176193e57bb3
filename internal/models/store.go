package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Store is a user's storefront. One store per user; slug and WhatsApp number
// are globally unique.
type Store struct {
	BaseModel
	UserID          uuid.UUID                      `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User            *User                          `json:"user,omitempty"`
	BusinessName    string                         `json:"business_name"`
	Slug            string                         `gorm:"uniqueIndex" json:"slug"`
	Category        string                         `json:"category"`
	Description     string                         `json:"description"`
	Location        string                         `json:"location"`
	City            string                         `json:"city"`
	Country         string                         `json:"country"`
	WhatsappNumber  string                         `gorm:"uniqueIndex" json:"whatsapp_number"`
	BusinessEmail   string                         `json:"business_email"`
	SocialHandles   datatypes.JSONType[map[string]string] `json:"social_handles"`
	DeliveryOptions datatypes.JSONSlice[string]    `json:"delivery_options"`
	LogoURL         string                         `json:"logo_url"`
	CoverURL        string                         `json:"cover_url"`
	ThemeID         string                         `json:"theme_id"`
	IsActive        bool                           `json:"is_active"`
	Products        []Product                      `json:"products,omitempty"`
}

// DeliveryOptionValues enumerates the accepted delivery options.
var DeliveryOptionValues = []string{
	"In-store pickup",
	"Local delivery",
	"Nationwide shipping",
	"International shipping",
	"Express delivery",
}
