package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RatingMeta carries client hints captured with a rating.
type RatingMeta struct {
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Name      string `json:"name,omitempty"`
}

// StoreRating is one visitor's rating of a store. A second submission from
// the same fingerprint updates the row instead of inserting a new one.
type StoreRating struct {
	BaseModel
	StoreID     uuid.UUID                       `gorm:"type:uuid;uniqueIndex:idx_store_ratings_target_fp,priority:1" json:"store_id"`
	Fingerprint string                          `gorm:"uniqueIndex:idx_store_ratings_target_fp,priority:2" json:"fingerprint"`
	Rating      *float64                        `json:"rating"`
	Review      *string                         `json:"review"`
	IP          string                          `json:"ip"`
	Device      string                          `json:"device"`
	Meta        datatypes.JSONType[RatingMeta]  `json:"meta"`
}

// ProductRating additionally tracks a per-fingerprint like flag, independent
// of the numeric rating. A row may hold only a like and no rating.
type ProductRating struct {
	BaseModel
	ProductID   uuid.UUID                       `gorm:"type:uuid;uniqueIndex:idx_product_ratings_target_fp,priority:1" json:"product_id"`
	Fingerprint string                          `gorm:"uniqueIndex:idx_product_ratings_target_fp,priority:2" json:"fingerprint"`
	Rating      *float64                        `json:"rating"`
	Review      *string                         `json:"review"`
	Liked       *bool                           `json:"liked"`
	IP          string                          `json:"ip"`
	Device      string                          `json:"device"`
	Meta        datatypes.JSONType[RatingMeta]  `json:"meta"`
}
