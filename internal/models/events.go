package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ViewMeta carries client hints captured alongside a view row.
type ViewMeta struct {
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Platform  string `json:"platform,omitempty"`
	IsMobile  bool   `json:"is_mobile,omitempty"`
}

// StoreView is an append-only store page view. The composite unique index
// allows at most one counted view per (store, fingerprint) pair, ever.
type StoreView struct {
	BaseModel
	StoreID     uuid.UUID                     `gorm:"type:uuid;uniqueIndex:idx_store_views_target_fp,priority:1" json:"store_id"`
	Fingerprint string                        `gorm:"uniqueIndex:idx_store_views_target_fp,priority:2" json:"fingerprint"`
	IP          string                        `json:"ip"`
	Device      string                        `json:"device"`
	Referrer    string                        `json:"referrer"`
	UTMSource   string                        `json:"utm_source"`
	UTMMedium   string                        `json:"utm_medium"`
	UTMCampaign string                        `json:"utm_campaign"`
	Meta        datatypes.JSONType[ViewMeta]  `json:"meta"`
}

// ProductView mirrors StoreView for individual products.
type ProductView struct {
	BaseModel
	ProductID   uuid.UUID                     `gorm:"type:uuid;uniqueIndex:idx_product_views_target_fp,priority:1" json:"product_id"`
	Fingerprint string                        `gorm:"uniqueIndex:idx_product_views_target_fp,priority:2" json:"fingerprint"`
	IP          string                        `json:"ip"`
	Device      string                        `json:"device"`
	Referrer    string                        `json:"referrer"`
	UTMSource   string                        `json:"utm_source"`
	UTMMedium   string                        `json:"utm_medium"`
	UTMCampaign string                        `json:"utm_campaign"`
	Meta        datatypes.JSONType[ViewMeta]  `json:"meta"`
}

// Inquiry records a visitor clicking through to contact the store. Unlike
// views, repeat inquiries from the same fingerprint are all counted.
type Inquiry struct {
	BaseModel
	StoreID        uuid.UUID `gorm:"type:uuid;index" json:"store_id"`
	ProductClicked string    `json:"product_clicked"`
	Fingerprint    string    `gorm:"index" json:"fingerprint"`
	Label          string    `json:"label"`
}

// PageView is the generic site-wide page view event used by the page-view
// analytics endpoints.
type PageView struct {
	BaseModel
	URL             string     `gorm:"index" json:"url"`
	Referrer        string     `json:"referrer"`
	UserAgent       string     `json:"user_agent"`
	IPAddress       string     `json:"ip_address"`
	UserID          *uuid.UUID `gorm:"type:uuid" json:"user_id"`
	SessionID       string     `gorm:"index" json:"session_id"`
	PageTitle       string     `json:"page_title"`
	ViewportWidth   int        `json:"viewport_width"`
	ViewportHeight  int        `json:"viewport_height"`
	SessionDuration int        `json:"session_duration"`
	ViewedAt        time.Time  `gorm:"index" json:"viewed_at"`
}

// IpLocation caches resolved geo data per IP. Rows never expire; a short-TTL
// cache sits in front of the lookup to avoid redundant provider calls.
type IpLocation struct {
	BaseModel
	IP        string          `gorm:"uniqueIndex" json:"ip"`
	Country   string          `json:"country"`
	Region    string          `json:"region"`
	City      string          `json:"city"`
	Latitude  string          `json:"latitude"`
	Longitude string          `json:"longitude"`
	Timezone  string          `json:"timezone"`
	Raw       datatypes.JSON  `json:"raw,omitempty"`
}
