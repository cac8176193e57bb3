package services

import (
	"time"

	"github.com/example/storehub/internal/models"
)

// PageViewFilter narrows site-wide page view queries. Zero-value fields are
// ignored.
type PageViewFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	URLSubstring string
	Limit        int
}

// PageCount is one URL with its title and view count.
type PageCount struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

// PageViewStats is the aggregate payload for site-wide page views.
type PageViewStats struct {
	TotalViews         int64       `json:"total_views"`
	UniqueSessions     int64       `json:"unique_sessions"`
	UniqueVisitors     int64       `json:"unique_visitors"`
	AvgSessionDuration float64     `json:"avg_session_duration"`
	TopPages           []PageCount `json:"top_pages"`
}

// PageViewStats aggregates page view rows matching the filter.
func (s *AnalyticsService) PageViewStats(filter PageViewFilter) (*PageViewStats, error) {
	query := s.db.Model(&models.PageView{})
	if filter.StartDate != nil {
		query = query.Where("viewed_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("viewed_at <= ?", *filter.EndDate)
	}
	if filter.URLSubstring != "" {
		query = query.Where("url LIKE ?", "%"+filter.URLSubstring+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Internal(err)
	}

	var sessions int64
	if err := query.Session(nil).Distinct("session_id").Count(&sessions).Error; err != nil {
		return nil, Internal(err)
	}

	var visitors int64
	if err := query.Session(nil).Distinct("ip_address").Count(&visitors).Error; err != nil {
		return nil, Internal(err)
	}

	var avgDuration struct {
		Avg *float64
	}
	if err := query.Session(nil).
		Where("session_duration > 0").
		Select("AVG(session_duration) AS avg").
		Scan(&avgDuration).Error; err != nil {
		return nil, Internal(err)
	}

	limit := filter.Limit
	if limit < 1 || limit > 50 {
		limit = 10
	}
	var topPages []PageCount
	if err := query.Session(nil).
		Select("url, page_title AS title, COUNT(*) AS views").
		Group("url, page_title").
		Order("views DESC").
		Limit(limit).
		Scan(&topPages).Error; err != nil {
		return nil, Internal(err)
	}

	stats := &PageViewStats{
		TotalViews:     total,
		UniqueSessions: sessions,
		UniqueVisitors: visitors,
		TopPages:       topPages,
	}
	if avgDuration.Avg != nil {
		stats.AvgSessionDuration = *avgDuration.Avg
	}
	return stats, nil
}

// ListPageViews returns raw page view rows matching the filter, newest first.
func (s *AnalyticsService) ListPageViews(filter PageViewFilter) ([]models.PageView, error) {
	query := s.db.Model(&models.PageView{})
	if filter.StartDate != nil {
		query = query.Where("viewed_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("viewed_at <= ?", *filter.EndDate)
	}
	if filter.URLSubstring != "" {
		query = query.Where("url LIKE ?", "%"+filter.URLSubstring+"%")
	}

	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var rows []models.PageView
	if err := query.Order("viewed_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, Internal(err)
	}
	return rows, nil
}
