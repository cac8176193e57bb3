package services

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/models"
)

// RatingInput carries a visitor's rating submission.
type RatingInput struct {
	Fingerprint string
	Rating      *float64
	Review      *string
	IP          string
	Device      string
	Meta        models.RatingMeta
}

// RatingSummary is the aggregate view of a target's ratings.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// RatingService stores per-fingerprint ratings and keeps product aggregates
// in sync. Aggregates are always recomputed from the rating rows rather than
// adjusted incrementally, so deletes and resubmissions stay consistent.
type RatingService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewRatingService creates a new RatingService.
func NewRatingService(db *gorm.DB, m *metrics.Metrics) *RatingService {
	return &RatingService{db: db, metrics: m}
}

func validateRating(rating *float64) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ValidationError("rating must be between 1 and 5")
	}
	return nil
}

// SubmitStoreRating upserts the visitor's rating of a store. A resubmission
// from the same fingerprint replaces the previous rating and review.
func (s *RatingService) SubmitStoreRating(storeID uuid.UUID, in RatingInput) (*models.StoreRating, error) {
	if in.Fingerprint == "" {
		return nil, ValidationError("fingerprint is required")
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	var row models.StoreRating
	err := s.db.Where("store_id = ? AND fingerprint = ?", storeID, in.Fingerprint).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.StoreRating{
			StoreID:     storeID,
			Fingerprint: in.Fingerprint,
			Rating:      in.Rating,
			Review:      in.Review,
			IP:          in.IP,
			Device:      in.Device,
			Meta:        datatypes.NewJSONType(in.Meta),
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, Internal(err)
		}
		s.metrics.RatingsRecorded.WithLabelValues("store").Inc()
		return &row, nil
	}
	if err != nil {
		return nil, Internal(err)
	}

	row.Rating = in.Rating
	row.Review = in.Review
	row.Meta = datatypes.NewJSONType(in.Meta)
	if err := s.db.Save(&row).Error; err != nil {
		return nil, Internal(err)
	}
	s.metrics.RatingsRecorded.WithLabelValues("store").Inc()
	return &row, nil
}

// SubmitProductRating upserts the visitor's rating of a product and
// recomputes the product's aggregates.
func (s *RatingService) SubmitProductRating(productID uuid.UUID, in RatingInput) (*models.ProductRating, error) {
	if in.Fingerprint == "" {
		return nil, ValidationError("fingerprint is required")
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	var row models.ProductRating
	err := s.db.Where("product_id = ? AND fingerprint = ?", productID, in.Fingerprint).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProductRating{
			ProductID:   productID,
			Fingerprint: in.Fingerprint,
			Rating:      in.Rating,
			Review:      in.Review,
			IP:          in.IP,
			Device:      in.Device,
			Meta:        datatypes.NewJSONType(in.Meta),
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, Internal(err)
		}
	} else if err != nil {
		return nil, Internal(err)
	} else {
		row.Rating = in.Rating
		row.Review = in.Review
		row.Meta = datatypes.NewJSONType(in.Meta)
		if err := s.db.Save(&row).Error; err != nil {
			return nil, Internal(err)
		}
	}

	if err := s.RecomputeProduct(productID); err != nil {
		return nil, err
	}
	s.metrics.RatingsRecorded.WithLabelValues("product").Inc()
	return &row, nil
}

// ToggleLike flips the visitor's like flag on a product and returns the new
// state. A visitor with no rating row yet gets one holding only the like.
func (s *RatingService) ToggleLike(productID uuid.UUID, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, ValidationError("fingerprint is required")
	}

	var row models.ProductRating
	err := s.db.Where("product_id = ? AND fingerprint = ?", productID, fingerprint).First(&row).Error
	liked := true
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProductRating{
			ProductID:   productID,
			Fingerprint: fingerprint,
			Liked:       &liked,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return false, Internal(err)
		}
	} else if err != nil {
		return false, Internal(err)
	} else {
		liked = row.Liked == nil || !*row.Liked
		row.Liked = &liked
		if err := s.db.Save(&row).Error; err != nil {
			return false, Internal(err)
		}
	}

	if err := s.RecomputeProduct(productID); err != nil {
		return false, err
	}
	return liked, nil
}

// DeleteProductRating removes the visitor's rating row and recomputes the
// product aggregates.
func (s *RatingService) DeleteProductRating(productID uuid.UUID, fingerprint string) error {
	res := s.db.Where("product_id = ? AND fingerprint = ?", productID, fingerprint).
		Delete(&models.ProductRating{})
	if res.Error != nil {
		return Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("rating not found")
	}
	return s.RecomputeProduct(productID)
}

// DeleteStoreRating removes the visitor's store rating row.
func (s *RatingService) DeleteStoreRating(storeID uuid.UUID, fingerprint string) error {
	res := s.db.Where("store_id = ? AND fingerprint = ?", storeID, fingerprint).
		Delete(&models.StoreRating{})
	if res.Error != nil {
		return Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("rating not found")
	}
	return nil
}

// HasRated reports whether the fingerprint already rated the product.
func (s *RatingService) HasRated(productID uuid.UUID, fingerprint string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.ProductRating{}).
		Where("product_id = ? AND fingerprint = ? AND rating IS NOT NULL", productID, fingerprint).
		Count(&count).Error; err != nil {
		return false, Internal(err)
	}
	return count > 0, nil
}

// StoreSummary computes the live average and count for a store.
func (s *RatingService) StoreSummary(storeID uuid.UUID) (RatingSummary, error) {
	return s.summary(s.db.Model(&models.StoreRating{}).Where("store_id = ?", storeID))
}

// StoreDistribution returns the count of ratings per star bucket (1..5).
// Fractional ratings are floored, a 3.5 counts toward the 3-star bucket.
func (s *RatingService) StoreDistribution(storeID uuid.UUID) (map[int]int64, error) {
	var rows []models.StoreRating
	if err := s.db.Where("store_id = ? AND rating IS NOT NULL", storeID).Find(&rows).Error; err != nil {
		return nil, Internal(err)
	}
	dist := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range rows {
		dist[starBucket(*r.Rating)]++
	}
	return dist, nil
}

func starBucket(rating float64) int {
	star := int(math.Floor(rating))
	if star < 1 {
		return 1
	}
	if star > 5 {
		return 5
	}
	return star
}

// RecomputeProduct re-aggregates a product's average, count and likes from
// its rating rows.
func (s *RatingService) RecomputeProduct(productID uuid.UUID) error {
	summary, err := s.summary(s.db.Model(&models.ProductRating{}).Where("product_id = ?", productID))
	if err != nil {
		return err
	}

	var likes int64
	if err := s.db.Model(&models.ProductRating{}).
		Where("product_id = ? AND liked = ?", productID, true).
		Count(&likes).Error; err != nil {
		return Internal(err)
	}

	if err := s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"average_rating": summary.Average,
			"ratings_count":  summary.Count,
			"likes":          likes,
		}).Error; err != nil {
		return Internal(err)
	}
	return nil
}

func (s *RatingService) summary(query *gorm.DB) (RatingSummary, error) {
	var out struct {
		Average *float64
		Count   int64
	}
	err := query.Where("rating IS NOT NULL").
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Scan(&out).Error
	if err != nil {
		return RatingSummary{}, Internal(err)
	}
	summary := RatingSummary{Count: out.Count}
	if out.Average != nil {
		summary.Average = *out.Average
	}
	return summary, nil
}
