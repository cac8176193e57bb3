package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product belongs to a store. Non-premium owners are limited to five active
// products, enforced at creation time by the quota service.
type Product struct {
	BaseModel
	StoreID       uuid.UUID      `gorm:"type:uuid;index" json:"store_id"`
	Store         *Store         `json:"store,omitempty"`
	Name          string         `json:"name"`
	Slug          string         `gorm:"uniqueIndex" json:"slug"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	Category      string         `json:"category"`
	IsActive      bool           `json:"is_active"`
	SortOrder     int            `json:"sort_order"`
	AverageRating float64        `json:"average_rating"`
	RatingsCount  int            `json:"ratings_count"`
	Likes         int            `json:"likes"`
	Images        []ProductImage `json:"images,omitempty"`
}

// ImageMeta is stored on each product image. Exactly one image per product
// carries IsPrimary.
type ImageMeta struct {
	IsPrimary    bool   `json:"is_primary"`
	SortOrder    int    `json:"sort_order"`
	MimeType     string `json:"mime_type"`
	OriginalName string `json:"original_name"`
}

// ProductImage is an uploaded image attached to a product.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID                      `gorm:"type:uuid;index" json:"product_id"`
	URL       string                         `json:"url"`
	Name      string                         `json:"name"`
	Meta      datatypes.JSONType[ImageMeta]  `json:"meta"`
	Size      string                         `json:"size"`
}
