package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/example/storehub/internal/models"
)

func newAnalyticsService(db *gorm.DB) *AnalyticsService {
	m := testMetrics()
	return NewAnalyticsService(db, NewRatingService(db, m), m, newTestLogger())
}

func TestParseRangeFallsBackToAllTime(t *testing.T) {
	tests := []struct {
		input string
		label string
	}{
		{"24hours", "24hours"},
		{"7days", "7days"},
		{"30days", "30days"},
		{"90days", "90days"},
		{"", "all"},
		{"last-week", "all"},
	}
	for _, tt := range tests {
		rng := ParseRange(tt.input)
		if rng.Label != tt.label {
			t.Errorf("ParseRange(%q) label = %q, want %q", tt.input, rng.Label, tt.label)
		}
		if !rng.End.After(rng.Start) {
			t.Errorf("ParseRange(%q) has empty window", tt.input)
		}
	}

	allTime := ParseRange("bogus")
	if !allTime.Start.Equal(time.Unix(0, 0)) {
		t.Errorf("unknown range should start at epoch, got %v", allTime.Start)
	}
}

func TestClassifyTrafficSource(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		device   string
		want     string
	}{
		{"instagram app", "android-app://com.instagram.android", "", "instagram"},
		{"facebook app", "android-app://com.facebook.katana/", "", "facebook"},
		{"unknown app", "android-app://com.example.browser", "", "other_apps"},
		{"facebook in-app token", "", "Mobile fbios", "facebook"},
		{"instagram in-app token", "", "mobile instagram", "instagram"},
		{"mobile without app token", "", "Mobile Safari", "other"},
		{"empty referrer no device", "", "", "direct"},
		{"plain desktop no referrer", "", "Desktop", "direct"},
		{"google search", "https://www.google.com/search?q=shoes", "", "google"},
		{"twitter short link", "https://t.co/abc123", "", "x"},
		{"telegram link", "https://t.me/channel", "", "telegram"},
		{"random blog", "https://myblog.example.com/post", "", "other_websites"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrafficSource(tt.referrer, tt.device); got != tt.want {
				t.Errorf("ClassifyTrafficSource(%q, %q) = %q, want %q", tt.referrer, tt.device, got, tt.want)
			}
		})
	}
}

func TestDeviceBreakdown(t *testing.T) {
	views := []models.StoreView{
		{Device: "iPhone"},
		{Device: "iPhone"},
		{Device: "Android"},
		{Device: "Mobile"},
		{Device: "Desktop"},
	}
	got := deviceBreakdown(views)
	if got.Total != 5 {
		t.Fatalf("expected total 5, got %d", got.Total)
	}
	if got.MobilePercent != 80 {
		t.Fatalf("expected 80%% mobile, got %f", got.MobilePercent)
	}

	// grouped by raw device string, highest count first
	if len(got.Counts) != 4 {
		t.Fatalf("expected 4 device groups, got %v", got.Counts)
	}
	if got.Counts[0].Device != "iPhone" || got.Counts[0].Count != 2 {
		t.Fatalf("expected iPhone group first with 2 views, got %v", got.Counts[0])
	}

	empty := deviceBreakdown(nil)
	if empty.MobilePercent != 0 || empty.Total != 0 {
		t.Fatalf("empty breakdown should be zero, got %+v", empty)
	}
}

func TestStoreAnalyticsSummaryFields(t *testing.T) {
	db := newTestDB(t)
	m := testMetrics()
	ratings := NewRatingService(db, m)
	svc := NewAnalyticsService(db, ratings, m, newTestLogger())
	tracking := NewTrackingService(db, nil, m, newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	seedStoreTraffic(t, tracking, store)

	for i, r := range []float64{4.5, 3} {
		in := RatingInput{Fingerprint: "fp-" + string(rune('1'+i)), Rating: ratingOf(r)}
		if _, err := ratings.SubmitStoreRating(store.ID, in); err != nil {
			t.Fatalf("seed rating: %v", err)
		}
	}

	createTestProduct(t, db, store, "Visible")
	hidden := createTestProduct(t, db, store, "Hidden")
	if err := db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	payload, err := svc.StoreAnalytics(user, store.ID, "7days")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if payload.UniqueVisitors != 2 {
		t.Fatalf("expected 2 unique visitors, got %d", payload.UniqueVisitors)
	}
	// a fingerprint counts one view per store, so nobody shows up twice
	if payload.ReturningVisitors != 0 {
		t.Fatalf("expected 0 returning visitors, got %d", payload.ReturningVisitors)
	}
	// (4.5 + 3) / 2 rounded to one decimal
	if payload.AverageRating != 3.8 {
		t.Fatalf("expected average rating 3.8, got %f", payload.AverageRating)
	}
	if payload.ProductsCount != 1 {
		t.Fatalf("expected 1 active product, got %d", payload.ProductsCount)
	}
	if payload.Ratings.Count != 2 {
		t.Fatalf("expected 2 ratings, got %d", payload.Ratings.Count)
	}
	if payload.Ratings.Distribution[4] != 1 || payload.Ratings.Distribution[3] != 1 {
		t.Fatalf("unexpected distribution %v", payload.Ratings.Distribution)
	}
}

func TestStoreAnalyticsHourlySeriesNeedsDayWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	tracking := NewTrackingService(db, nil, testMetrics(), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	seedStoreTraffic(t, tracking, store)

	week, err := svc.StoreAnalytics(user, store.ID, "7days")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(week.Daily) == 0 {
		t.Fatal("daily series must always be populated")
	}
	if len(week.Hourly) != 0 {
		t.Fatalf("hourly series must be empty beyond a day window, got %v", week.Hourly)
	}

	day, err := svc.StoreAnalytics(user, store.ID, "24hours")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(day.Daily) == 0 || len(day.Hourly) == 0 {
		t.Fatalf("day window must fill both series, daily %v hourly %v", day.Daily, day.Hourly)
	}
}

func TestStoreAnalyticsGatesPremiumMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	tracking := NewTrackingService(db, nil, testMetrics(), newTestLogger())
	user := createTestUser(t, db, "free@example.com", false)
	store := createTestStore(t, db, user)

	seedStoreTraffic(t, tracking, store)

	payload, err := svc.StoreAnalytics(user, store.ID, "7days")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if !payload.Premium.Locked {
		t.Fatal("free account must get locked premium metrics")
	}
	if payload.Premium.ConversionRate != nil || payload.Premium.CAC != nil || payload.Premium.RepeatCustomers != nil {
		t.Fatal("locked metrics must be null")
	}
	// basic metrics still present for free accounts
	if payload.TotalViews != 2 {
		t.Fatalf("expected 2 views, got %d", payload.TotalViews)
	}
	if payload.TotalInquiries != 3 {
		t.Fatalf("expected 3 inquiries, got %d", payload.TotalInquiries)
	}
}

func TestStoreAnalyticsPremiumMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	tracking := NewTrackingService(db, nil, testMetrics(), newTestLogger())
	user := createTestUser(t, db, "premium@example.com", true)
	store := createTestStore(t, db, user)

	seedStoreTraffic(t, tracking, store)

	payload, err := svc.StoreAnalytics(user, store.ID, "7days")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if payload.Premium.Locked {
		t.Fatal("premium account must not be locked")
	}
	if payload.Premium.ConversionRate == nil {
		t.Fatal("expected conversion rate")
	}
	// 3 inquiries / 2 views * 100
	if *payload.Premium.ConversionRate != 150 {
		t.Fatalf("expected conversion 150, got %f", *payload.Premium.ConversionRate)
	}
	if payload.Premium.CAC != nil {
		t.Fatal("CAC has no data source and must stay null")
	}
	// fp-1 inquired twice, fp-2 once
	if payload.Premium.RepeatCustomers == nil || *payload.Premium.RepeatCustomers != 1 {
		t.Fatalf("expected 1 repeat customer, got %v", payload.Premium.RepeatCustomers)
	}
}

func TestStoreAnalyticsRejectsForeignStore(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	owner := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, owner)
	intruder := createTestUser(t, db, "intruder@example.com", false)

	_, err := svc.StoreAnalytics(intruder, store.ID, "7days")
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLocationBreakdownExcludesUnresolved(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	locations := []models.IpLocation{
		{IP: "1.1.1.1", Country: "NG", City: "Lagos"},
		{IP: "2.2.2.2", Country: "NG", City: "Abuja"},
		{IP: "3.3.3.3", Country: "GH", City: "Accra"},
	}
	if err := db.Create(&locations).Error; err != nil {
		t.Fatalf("seed locations: %v", err)
	}

	views := []models.StoreView{
		{StoreID: store.ID, Fingerprint: "a", IP: "1.1.1.1"},
		{StoreID: store.ID, Fingerprint: "b", IP: "2.2.2.2"},
		{StoreID: store.ID, Fingerprint: "c", IP: "3.3.3.3"},
		{StoreID: store.ID, Fingerprint: "d", IP: "9.9.9.9"}, // never resolved
	}

	got, err := svc.locationBreakdown(store, views)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if got.Local != 1 || got.National != 1 || got.International != 1 {
		t.Fatalf("unexpected breakdown %+v", got)
	}
}

func TestTopProductsLimitedToFive(t *testing.T) {
	db := newTestDB(t)
	svc := newAnalyticsService(db)
	user := createTestUser(t, db, "owner@example.com", false)
	store := createTestStore(t, db, user)

	for i := 0; i < 7; i++ {
		product := createTestProduct(t, db, store, "Product "+string(rune('A'+i)))
		// product i gets i+1 views
		for v := 0; v <= i; v++ {
			view := models.ProductView{
				ProductID:   product.ID,
				Fingerprint: "fp-" + string(rune('a'+v)),
				UTMSource:   "instagram",
			}
			if err := db.Create(&view).Error; err != nil {
				t.Fatalf("seed view: %v", err)
			}
		}
	}

	top, err := svc.topProducts(store.ID, ParseRange("7days"))
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(top) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(top))
	}
	if top[0].Views != 7 {
		t.Fatalf("expected most viewed first with 7 views, got %d", top[0].Views)
	}
	if top[0].Sources["instagram"] != 7 {
		t.Fatalf("expected instagram split, got %v", top[0].Sources)
	}
}

func TestClassifyProductSource(t *testing.T) {
	tests := []struct {
		utm      string
		referrer string
		want     string
	}{
		{"instagram", "", "instagram"},
		{"newsletter", "", "other"},
		{"", "", "direct"},
		{"", "https://www.google.com/search", "google"},
		{"", "https://facebook.com/page", "facebook"},
		{"", "https://t.co/xyz", "twitter"},
		{"", "https://example.com", "other"},
	}
	for _, tt := range tests {
		if got := classifyProductSource(tt.utm, tt.referrer); got != tt.want {
			t.Errorf("classifyProductSource(%q, %q) = %q, want %q", tt.utm, tt.referrer, got, tt.want)
		}
	}
}

func seedStoreTraffic(t *testing.T, tracking *TrackingService, store *models.Store) {
	t.Helper()
	ctx := context.Background()

	for _, fp := range []string{"fp-1", "fp-2"} {
		if _, err := tracking.RecordStoreView(ctx, store.ID, ViewInput{Fingerprint: fp, Device: "iPhone"}); err != nil {
			t.Fatalf("seed view %s: %v", fp, err)
		}
	}
	for _, fp := range []string{"fp-1", "fp-1", "fp-2"} {
		if _, err := tracking.RecordInquiry(store.ID, InquiryInput{Fingerprint: fp, Label: "whatsapp"}); err != nil {
			t.Fatalf("seed inquiry %s: %v", fp, err)
		}
	}
}
