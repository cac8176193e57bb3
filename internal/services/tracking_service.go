package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/models"
)

// ViewInput carries everything captured about an anonymous visit.
type ViewInput struct {
	Fingerprint string
	IP          string
	Device      string
	Referrer    string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	Meta        models.ViewMeta
}

// InquiryInput captures a contact click-through.
type InquiryInput struct {
	Fingerprint    string
	ProductClicked string
	Label          string
}

// TrackingService records views, inquiries and page views. Views dedup on
// (target, fingerprint) via the unique index; the first insert wins and later
// attempts report created=false. Inquiries are never deduplicated.
type TrackingService struct {
	db      *gorm.DB
	geo     *IPLocationService
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

// NewTrackingService creates a new TrackingService. geo may be nil to skip
// geo enrichment.
func NewTrackingService(db *gorm.DB, geo *IPLocationService, m *metrics.Metrics, logger *logrus.Logger) *TrackingService {
	return &TrackingService{
		db:      db,
		geo:     geo,
		metrics: m,
		logger:  logger.WithField("component", "tracking"),
	}
}

// RecordStoreView counts at most one view per (store, fingerprint), ever.
func (s *TrackingService) RecordStoreView(ctx context.Context, storeID uuid.UUID, in ViewInput) (bool, error) {
	if in.Fingerprint == "" {
		return false, ValidationError("fingerprint is required")
	}

	row := models.StoreView{
		StoreID:     storeID,
		Fingerprint: in.Fingerprint,
		IP:          in.IP,
		Device:      in.Device,
		Referrer:    in.Referrer,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
	}
	row.Meta = datatypes.NewJSONType(in.Meta)

	created, err := s.insertOnce(&row)
	if err != nil {
		return false, err
	}
	s.countView("store", created)
	if created {
		s.enrichGeo(ctx, in.IP)
	}
	return created, nil
}

// RecordProductView counts at most one view per (product, fingerprint), ever.
func (s *TrackingService) RecordProductView(ctx context.Context, productID uuid.UUID, in ViewInput) (bool, error) {
	if in.Fingerprint == "" {
		return false, ValidationError("fingerprint is required")
	}

	row := models.ProductView{
		ProductID:   productID,
		Fingerprint: in.Fingerprint,
		IP:          in.IP,
		Device:      in.Device,
		Referrer:    in.Referrer,
		UTMSource:   in.UTMSource,
		UTMMedium:   in.UTMMedium,
		UTMCampaign: in.UTMCampaign,
	}
	row.Meta = datatypes.NewJSONType(in.Meta)

	created, err := s.insertOnce(&row)
	if err != nil {
		return false, err
	}
	s.countView("product", created)
	if created {
		s.enrichGeo(ctx, in.IP)
	}
	return created, nil
}

// RecordInquiry appends an inquiry event. Repeat inquiries from the same
// fingerprint all count.
func (s *TrackingService) RecordInquiry(storeID uuid.UUID, in InquiryInput) (*models.Inquiry, error) {
	if in.Fingerprint == "" {
		return nil, ValidationError("fingerprint is required")
	}

	row := models.Inquiry{
		StoreID:        storeID,
		ProductClicked: in.ProductClicked,
		Fingerprint:    in.Fingerprint,
		Label:          in.Label,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, Internal(err)
	}
	s.metrics.InquiriesRecorded.Inc()
	return &row, nil
}

// RecordPageView appends a site-wide page view event.
func (s *TrackingService) RecordPageView(pv *models.PageView) error {
	if pv.ViewedAt.IsZero() {
		pv.ViewedAt = time.Now()
	}
	if err := s.db.Create(pv).Error; err != nil {
		return Internal(err)
	}
	return nil
}

// MaxPageViewBatch caps a single batch ingest call.
const MaxPageViewBatch = 100

// RecordPageViewBatch inserts up to MaxPageViewBatch events in one write.
// Clients buffer events and flush them on page unload.
func (s *TrackingService) RecordPageViewBatch(pvs []models.PageView) (int, error) {
	if len(pvs) == 0 {
		return 0, ValidationError("batch is empty")
	}
	if len(pvs) > MaxPageViewBatch {
		return 0, ValidationError(fmt.Sprintf("batch is limited to %d events", MaxPageViewBatch))
	}
	now := time.Now()
	for i := range pvs {
		if pvs[i].ViewedAt.IsZero() {
			pvs[i].ViewedAt = now
		}
	}
	if err := s.db.Create(&pvs).Error; err != nil {
		return 0, Internal(err)
	}
	return len(pvs), nil
}

// insertOnce creates the row and maps a unique violation on the
// (target, fingerprint) index to created=false.
func (s *TrackingService) insertOnce(row interface{}) (bool, error) {
	err := s.db.Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, Internal(err)
	}
	return true, nil
}

func (s *TrackingService) countView(target string, created bool) {
	outcome := "duplicate"
	if created {
		outcome = "created"
	}
	s.metrics.ViewsRecorded.WithLabelValues(target, outcome).Inc()
}

// enrichGeo resolves the visitor IP best-effort so later analytics can bucket
// by location. Failures are logged and never surface to the caller.
func (s *TrackingService) enrichGeo(ctx context.Context, ip string) {
	if s.geo == nil || ip == "" {
		return
	}
	if _, err := s.geo.Lookup(ctx, ip); err != nil {
		s.logger.WithField("ip", ip).WithError(err).Debug("geo enrichment failed")
	}
}
