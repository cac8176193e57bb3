package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/services"
	"github.com/example/storehub/internal/utils"
)

// AnalyticsHandler bundles dependencies for dashboard endpoints.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
	stores    *services.StoreService
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *services.AnalyticsService, stores *services.StoreService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, stores: stores}
}

// StoreDashboard serves the full analytics payload for the user's store.
// Unknown timeRange values fall back to all-time.
func (h *AnalyticsHandler) StoreDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	store, err := h.stores.GetByUser(user.ID)
	if err != nil {
		return err
	}

	payload, err := h.analytics.StoreAnalytics(user, store.ID, c.Query("timeRange"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"analytics": payload,
	})
}

func (h *AnalyticsHandler) pageViewFilter(c *fiber.Ctx) services.PageViewFilter {
	filter := services.PageViewFilter{
		URLSubstring: c.Query("url"),
		Limit:        utils.ParsePagination(c).Limit,
	}
	if start := c.Query("start_date"); start != "" {
		if parsed, err := time.Parse("2006-01-02", start); err == nil {
			filter.StartDate = &parsed
		}
	}
	if end := c.Query("end_date"); end != "" {
		if parsed, err := time.Parse("2006-01-02", end); err == nil {
			endOfDay := parsed.Add(24*time.Hour - time.Second)
			filter.EndDate = &endOfDay
		}
	}
	return filter
}

// PageViewStats serves site-wide page view aggregates.
func (h *AnalyticsHandler) PageViewStats(c *fiber.Ctx) error {
	if _, ok := middleware.GetCurrentUser(c); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	stats, err := h.analytics.PageViewStats(h.pageViewFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// PageViews lists raw page view rows, newest first.
func (h *AnalyticsHandler) PageViews(c *fiber.Ctx) error {
	if _, ok := middleware.GetCurrentUser(c); !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	rows, err := h.analytics.ListPageViews(h.pageViewFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"page_views": rows,
	})
}
