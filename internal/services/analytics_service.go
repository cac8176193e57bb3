package services

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/models"
)

// Range is a resolved analytics window.
type Range struct {
	Start time.Time
	End   time.Time
	Label string
}

// ParseRange resolves a requested time range. Unknown values fall back to
// all-time rather than erroring.
func ParseRange(timeRange string) Range {
	now := time.Now()
	switch timeRange {
	case "24hours":
		return Range{Start: now.Add(-24 * time.Hour), End: now, Label: "24hours"}
	case "7days":
		return Range{Start: now.AddDate(0, 0, -7), End: now, Label: "7days"}
	case "30days":
		return Range{Start: now.AddDate(0, 0, -30), End: now, Label: "30days"}
	case "90days":
		return Range{Start: now.AddDate(0, 0, -90), End: now, Label: "90days"}
	default:
		return Range{Start: time.Unix(0, 0), End: now, Label: "all"}
	}
}

// SeriesPoint is one bucket of the views-over-time series.
type SeriesPoint struct {
	Label string `json:"label"`
	Views int64  `json:"views"`
}

// TrafficSource is one classified referrer bucket.
type TrafficSource struct {
	Source  string  `json:"source"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// DeviceCount is one raw device string with its view count.
type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"count"`
}

// DeviceBreakdown splits views into mobile and desktop shares and keeps the
// per-device counts grouped by the raw device string.
type DeviceBreakdown struct {
	Total          int64         `json:"total"`
	MobilePercent  float64       `json:"mobile_percent"`
	DesktopPercent float64       `json:"desktop_percent"`
	Counts         []DeviceCount `json:"counts"`
}

// RatingBreakdown carries a store's all-time rating aggregates with the
// per-star distribution.
type RatingBreakdown struct {
	Average      float64       `json:"average"`
	Count        int64         `json:"count"`
	Distribution map[int]int64 `json:"distribution"`
}

// LocationBreakdown buckets resolved visitors relative to the store's city
// and country. Visitors whose IP never resolved are excluded.
type LocationBreakdown struct {
	Local         int64 `json:"local"`
	National      int64 `json:"national"`
	International int64 `json:"international"`
}

// TopProduct is one entry of the most-viewed list with its source split.
type TopProduct struct {
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	Views     int64            `json:"views"`
	Sources   map[string]int64 `json:"sources"`
}

// PremiumMetrics holds the gated metrics. For non-premium accounts every
// pointer is nil and Locked is true.
type PremiumMetrics struct {
	Locked          bool     `json:"locked"`
	ConversionRate  *float64 `json:"conversion_rate"`
	CAC             *float64 `json:"customer_acquisition_cost"`
	RepeatCustomers *int64   `json:"repeat_customers"`
}

// StoreAnalytics is the full dashboard payload for one store. The average
// rating and distribution are all-time; everything else honors the range.
type StoreAnalytics struct {
	Range             string            `json:"range"`
	TotalViews        int64             `json:"total_views"`
	UniqueVisitors    int64             `json:"unique_visitors"`
	ReturningVisitors int64             `json:"returning_visitors"`
	TotalInquiries    int64             `json:"total_inquiries"`
	AverageRating     float64           `json:"average_rating"`
	ProductsCount     int64             `json:"products_count"`
	Daily             []SeriesPoint     `json:"daily_series"`
	Hourly            []SeriesPoint     `json:"hourly_series"`
	Traffic           []TrafficSource   `json:"traffic_sources"`
	Devices           DeviceBreakdown   `json:"devices"`
	Ratings           RatingBreakdown   `json:"ratings"`
	Locations         LocationBreakdown `json:"locations"`
	TopProducts       []TopProduct      `json:"top_products"`
	Premium           PremiumMetrics    `json:"premium"`
}

// AnalyticsService aggregates view, inquiry, rating and location data into
// dashboard payloads. View rows are fetched once per request and bucketed in
// Go; only plain counts and averages run as SQL.
type AnalyticsService struct {
	db      *gorm.DB
	ratings *RatingService
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(db *gorm.DB, ratings *RatingService, m *metrics.Metrics, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:      db,
		ratings: ratings,
		metrics: m,
		logger:  logger.WithField("component", "analytics"),
	}
}

// StoreAnalytics builds the dashboard for the user's store over the range.
func (s *AnalyticsService) StoreAnalytics(user *models.User, storeID uuid.UUID, timeRange string) (*StoreAnalytics, error) {
	var store models.Store
	if err := s.db.First(&store, "id = ?", storeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFound("store not found")
		}
		return nil, Internal(err)
	}
	if store.UserID != user.ID {
		return nil, Forbidden("store belongs to another user")
	}

	rng := ParseRange(timeRange)
	s.metrics.AnalyticsRequests.WithLabelValues(rng.Label).Inc()

	var views []models.StoreView
	if err := s.db.Where("store_id = ? AND created_at BETWEEN ? AND ?", storeID, rng.Start, rng.End).
		Find(&views).Error; err != nil {
		return nil, Internal(err)
	}

	var totalInquiries int64
	if err := s.db.Model(&models.Inquiry{}).
		Where("store_id = ? AND created_at BETWEEN ? AND ?", storeID, rng.Start, rng.End).
		Count(&totalInquiries).Error; err != nil {
		return nil, Internal(err)
	}

	unique, returning := visitorStats(views)

	ratingSummary, err := s.ratings.StoreSummary(storeID)
	if err != nil {
		return nil, err
	}
	distribution, err := s.ratings.StoreDistribution(storeID)
	if err != nil {
		return nil, err
	}
	averageRating := math.Round(ratingSummary.Average*10) / 10

	var productsCount int64
	if err := s.db.Model(&models.Product{}).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Count(&productsCount).Error; err != nil {
		return nil, Internal(err)
	}

	locations, err := s.locationBreakdown(&store, views)
	if err != nil {
		return nil, err
	}

	topProducts, err := s.topProducts(storeID, rng)
	if err != nil {
		return nil, err
	}

	premium, err := s.premiumMetrics(user, storeID, rng, int64(len(views)), totalInquiries)
	if err != nil {
		return nil, err
	}

	// hourly buckets only make sense for a window of at most a day
	hourly := []SeriesPoint{}
	if rng.End.Sub(rng.Start) <= 24*time.Hour {
		hourly = bucketViews(views, "15:00")
	}

	return &StoreAnalytics{
		Range:             rng.Label,
		TotalViews:        int64(len(views)),
		UniqueVisitors:    unique,
		ReturningVisitors: returning,
		TotalInquiries:    totalInquiries,
		AverageRating:     averageRating,
		ProductsCount:     productsCount,
		Daily:             bucketViews(views, "2006-01-02"),
		Hourly:            hourly,
		Traffic:           trafficBreakdown(views),
		Devices:           deviceBreakdown(views),
		Ratings: RatingBreakdown{
			Average:      averageRating,
			Count:        ratingSummary.Count,
			Distribution: distribution,
		},
		Locations:   locations,
		TopProducts: topProducts,
		Premium:     premium,
	}, nil
}

// visitorStats counts distinct fingerprints and those seen more than once in
// the fetched window.
func visitorStats(views []models.StoreView) (unique, returning int64) {
	perFingerprint := make(map[string]int64, len(views))
	for _, v := range views {
		perFingerprint[v.Fingerprint]++
	}
	unique = int64(len(perFingerprint))
	for _, n := range perFingerprint {
		if n > 1 {
			returning++
		}
	}
	return unique, returning
}

// premiumMetrics computes the gated metrics for premium accounts and returns
// a locked placeholder otherwise. CAC has no data source yet and stays null
// even for premium.
func (s *AnalyticsService) premiumMetrics(user *models.User, storeID uuid.UUID, rng Range, views, inquiries int64) (PremiumMetrics, error) {
	if !user.IsPremium {
		return PremiumMetrics{Locked: true}, nil
	}

	conversion := 0.0
	if views > 0 {
		conversion = float64(inquiries) / float64(views) * 100
	}

	// Repeat customers: distinct fingerprints with more than one inquiry in
	// the range.
	type fpCount struct {
		Fingerprint string
		Total       int64
	}
	var grouped []fpCount
	if err := s.db.Model(&models.Inquiry{}).
		Select("fingerprint, COUNT(*) AS total").
		Where("store_id = ? AND created_at BETWEEN ? AND ?", storeID, rng.Start, rng.End).
		Group("fingerprint").
		Scan(&grouped).Error; err != nil {
		return PremiumMetrics{}, Internal(err)
	}
	var repeat int64
	for _, g := range grouped {
		if g.Total > 1 {
			repeat++
		}
	}

	return PremiumMetrics{
		ConversionRate:  &conversion,
		RepeatCustomers: &repeat,
	}, nil
}

func (s *AnalyticsService) locationBreakdown(store *models.Store, views []models.StoreView) (LocationBreakdown, error) {
	ips := make([]string, 0, len(views))
	seen := make(map[string]bool, len(views))
	for _, v := range views {
		if v.IP != "" && !seen[v.IP] {
			seen[v.IP] = true
			ips = append(ips, v.IP)
		}
	}
	if len(ips) == 0 {
		return LocationBreakdown{}, nil
	}

	var resolved []models.IpLocation
	if err := s.db.Where("ip IN ?", ips).Find(&resolved).Error; err != nil {
		return LocationBreakdown{}, Internal(err)
	}
	byIP := make(map[string]models.IpLocation, len(resolved))
	for _, loc := range resolved {
		byIP[loc.IP] = loc
	}

	var out LocationBreakdown
	for _, v := range views {
		loc, ok := byIP[v.IP]
		if !ok {
			continue
		}
		sameCountry := strings.EqualFold(loc.Country, store.Country)
		sameCity := strings.EqualFold(loc.City, store.City)
		switch {
		case sameCountry && sameCity:
			out.Local++
		case sameCountry:
			out.National++
		default:
			out.International++
		}
	}
	return out, nil
}

func (s *AnalyticsService) topProducts(storeID uuid.UUID, rng Range) ([]TopProduct, error) {
	var products []models.Product
	if err := s.db.Where("store_id = ?", storeID).Find(&products).Error; err != nil {
		return nil, Internal(err)
	}
	if len(products) == 0 {
		return []TopProduct{}, nil
	}

	ids := make([]uuid.UUID, len(products))
	names := make(map[uuid.UUID]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
		names[p.ID] = p.Name
	}

	var views []models.ProductView
	if err := s.db.Where("product_id IN ? AND created_at BETWEEN ? AND ?", ids, rng.Start, rng.End).
		Find(&views).Error; err != nil {
		return nil, Internal(err)
	}

	byProduct := make(map[uuid.UUID]*TopProduct)
	for _, v := range views {
		entry, ok := byProduct[v.ProductID]
		if !ok {
			entry = &TopProduct{
				ProductID: v.ProductID,
				Name:      names[v.ProductID],
				Sources:   map[string]int64{},
			}
			byProduct[v.ProductID] = entry
		}
		entry.Views++
		entry.Sources[classifyProductSource(v.UTMSource, v.Referrer)]++
	}

	out := make([]TopProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	// top 5 by views, stable enough for a dashboard
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Views > out[i].Views {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out, nil
}

// bucketViews groups views into labeled buckets in first-seen order. The
// layout decides the granularity, "2006-01-02" for daily and "15:00" for
// hourly.
func bucketViews(views []models.StoreView, layout string) []SeriesPoint {
	counts := make(map[string]int64)
	order := []string{}
	for _, v := range views {
		label := v.CreatedAt.Format(layout)
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	out := make([]SeriesPoint, 0, len(order))
	for _, label := range order {
		out = append(out, SeriesPoint{Label: label, Views: counts[label]})
	}
	return out
}

func trafficBreakdown(views []models.StoreView) []TrafficSource {
	counts := make(map[string]int64)
	for _, v := range views {
		counts[ClassifyTrafficSource(v.Referrer, v.Device)]++
	}

	total := int64(len(views))
	out := make([]TrafficSource, 0, len(counts))
	for source, count := range counts {
		percent := 0.0
		if total > 0 {
			percent = float64(count) / float64(total) * 100
		}
		out = append(out, TrafficSource{Source: source, Count: count, Percent: percent})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[i].Count {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func deviceBreakdown(views []models.StoreView) DeviceBreakdown {
	var mobile int64
	perDevice := make(map[string]int64)
	for _, v := range views {
		switch v.Device {
		case "Mobile", "iPhone", "Android":
			mobile++
		}
		device := v.Device
		if device == "" {
			device = "unknown"
		}
		perDevice[device]++
	}

	counts := make([]DeviceCount, 0, len(perDevice))
	for device, count := range perDevice {
		counts = append(counts, DeviceCount{Device: device, Count: count})
	}
	for i := 0; i < len(counts); i++ {
		for j := i + 1; j < len(counts); j++ {
			if counts[j].Count > counts[i].Count {
				counts[i], counts[j] = counts[j], counts[i]
			}
		}
	}

	total := int64(len(views))
	denom := total
	if denom < 1 {
		denom = 1
	}
	mobilePct := float64(mobile) / float64(denom) * 100
	return DeviceBreakdown{
		Total:          total,
		MobilePercent:  mobilePct,
		DesktopPercent: float64(total-mobile) / float64(denom) * 100,
		Counts:         counts,
	}
}

var appPackageSources = []struct {
	substr string
	source string
}{
	{"com.facebook.katana", "facebook"},
	{"com.instagram.android", "instagram"},
	{"com.whatsapp", "whatsapp"},
	{"com.twitter.android", "x"},
	{"com.x.android", "x"},
	{"com.telegram.messenger", "telegram"},
	{"com.tiktok", "tiktok"},
}

var deviceTokenSources = []struct {
	token  string
	source string
}{
	{"fbios", "facebook"},
	{"facebook", "facebook"},
	{"instagram", "instagram"},
	{"whatsapp", "whatsapp"},
	{"x", "x"},
	{"telegram", "telegram"},
	{"tiktok", "tiktok"},
}

var referrerHostSources = []struct {
	substr string
	source string
}{
	{"facebook.com", "facebook"},
	{"instagram.com", "instagram"},
	{"twitter.com", "x"},
	{"t.co", "x"},
	{"whatsapp.com", "whatsapp"},
	{"telegram.org", "telegram"},
	{"t.me", "telegram"},
	{"linkedin.com", "linkedin"},
	{"tiktok.com", "tiktok"},
	{"google.", "google"},
}

// ClassifyTrafficSource maps a raw referrer plus the in-app device token to a
// named source bucket. Android in-app referrers win over everything, then
// mobile device tokens, then an empty referrer counts as direct, then known
// hosts. Device tokens are only consulted for mobile devices; a desktop view
// with no referrer is direct.
func ClassifyTrafficSource(referrer, device string) string {
	ref := strings.ToLower(strings.TrimSpace(referrer))
	dev := strings.ToLower(strings.TrimSpace(device))

	if strings.HasPrefix(ref, "android-app://") {
		for _, entry := range appPackageSources {
			if strings.Contains(ref, entry.substr) {
				return entry.source
			}
		}
		return "other_apps"
	}

	if ref == "" {
		if strings.Contains(dev, "mobile") {
			for _, entry := range deviceTokenSources {
				if strings.Contains(dev, entry.token) {
					return entry.source
				}
			}
			return "other"
		}
		return "direct"
	}

	for _, entry := range referrerHostSources {
		if strings.Contains(ref, entry.substr) {
			return entry.source
		}
	}
	return "other_websites"
}

// classifyProductSource buckets a product view by UTM source first, then
// referrer. Used for the per-product split on the top products list.
func classifyProductSource(utmSource, referrer string) string {
	utm := strings.ToLower(strings.TrimSpace(utmSource))
	switch utm {
	case "facebook", "instagram", "twitter", "google":
		return utm
	}
	if utm != "" {
		return "other"
	}

	ref := strings.ToLower(strings.TrimSpace(referrer))
	if ref == "" {
		return "direct"
	}
	if strings.Contains(ref, "google") {
		return "google"
	}
	for _, entry := range referrerHostSources {
		if strings.Contains(ref, entry.substr) {
			switch entry.source {
			case "facebook", "instagram", "google":
				return entry.source
			case "x":
				return "twitter"
			}
		}
	}
	return "other"
}
