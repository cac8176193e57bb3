package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/services"
)

// TrackingHandler bundles dependencies for view and inquiry recording.
type TrackingHandler struct {
	tracking *services.TrackingService
	stores   *services.StoreService
	products *services.ProductService
}

// NewTrackingHandler constructs a TrackingHandler.
func NewTrackingHandler(tracking *services.TrackingService, stores *services.StoreService, products *services.ProductService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking, stores: stores, products: products}
}

type viewRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
	Device      string `json:"device"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	Browser     string `json:"browser"`
	Platform    string `json:"platform"`
	IsMobile    bool   `json:"is_mobile"`
}

func (h *TrackingHandler) viewInput(c *fiber.Ctx, req viewRequest) services.ViewInput {
	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Get("Referer")
	}
	return services.ViewInput{
		Fingerprint: req.Fingerprint,
		IP:          c.IP(),
		Device:      req.Device,
		Referrer:    referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		Meta: models.ViewMeta{
			UserAgent: c.Get("User-Agent"),
			Browser:   req.Browser,
			Platform:  req.Platform,
			IsMobile:  req.IsMobile,
		},
	}
}

// StoreView records a view of a store page. The response reports whether the
// view counted or was a repeat from the same visitor.
func (h *TrackingHandler) StoreView(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req viewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	created, err := h.tracking.RecordStoreView(c.Context(), store.ID, h.viewInput(c, req))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"counted": created,
	})
}

// ProductView records a view of a product page.
func (h *TrackingHandler) ProductView(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req viewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	created, err := h.tracking.RecordProductView(c.Context(), product.ID, h.viewInput(c, req))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"counted": created,
	})
}

type inquiryRequest struct {
	Fingerprint    string `json:"fingerprint" validate:"required"`
	ProductClicked string `json:"product_clicked"`
	Label          string `json:"label"`
}

// Inquiry records a contact click-through. Every inquiry counts, repeats
// included.
func (h *TrackingHandler) Inquiry(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req inquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	inquiry, err := h.tracking.RecordInquiry(store.ID, services.InquiryInput{
		Fingerprint:    req.Fingerprint,
		ProductClicked: req.ProductClicked,
		Label:          req.Label,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"inquiry": inquiry,
	})
}

type pageViewRequest struct {
	URL             string `json:"url" validate:"required"`
	Referrer        string `json:"referrer"`
	SessionID       string `json:"session_id"`
	PageTitle       string `json:"page_title"`
	ViewportWidth   int    `json:"viewport_width"`
	ViewportHeight  int    `json:"viewport_height"`
	SessionDuration int    `json:"session_duration"`
	ViewedAt        string `json:"viewed_at"`
}

func (h *TrackingHandler) pageViewRow(c *fiber.Ctx, req pageViewRequest) models.PageView {
	row := models.PageView{
		URL:             req.URL,
		Referrer:        req.Referrer,
		UserAgent:       c.Get("User-Agent"),
		IPAddress:       c.IP(),
		SessionID:       req.SessionID,
		PageTitle:       req.PageTitle,
		ViewportWidth:   req.ViewportWidth,
		ViewportHeight:  req.ViewportHeight,
		SessionDuration: req.SessionDuration,
	}
	if req.ViewedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, req.ViewedAt); err == nil {
			row.ViewedAt = parsed
		}
	}
	if user, ok := middleware.GetCurrentUser(c); ok {
		id := user.ID
		row.UserID = &id
	}
	return row
}

// PageView records a site-wide page view event. The authenticated user is
// attached when a valid token is presented, but the endpoint is public.
func (h *TrackingHandler) PageView(c *fiber.Ctx) error {
	var req pageViewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	row := h.pageViewRow(c, req)
	if err := h.tracking.RecordPageView(&row); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
	})
}

type pageViewBatchRequest struct {
	Events []pageViewRequest `json:"events" validate:"required,min=1,max=100,dive"`
}

// PageViewBatch ingests a buffered batch of page view events in one call.
func (h *TrackingHandler) PageViewBatch(c *fiber.Ctx) error {
	var req pageViewBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	rows := make([]models.PageView, len(req.Events))
	for i, event := range req.Events {
		rows[i] = h.pageViewRow(c, event)
	}

	inserted, err := h.tracking.RecordPageViewBatch(rows)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"inserted": inserted,
	})
}
