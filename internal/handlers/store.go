package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/services"
)

// StoreHandler bundles dependencies for store endpoints.
type StoreHandler struct {
	stores *services.StoreService
	quota  *services.QuotaService
}

// NewStoreHandler constructs a StoreHandler.
func NewStoreHandler(stores *services.StoreService, quota *services.QuotaService) *StoreHandler {
	return &StoreHandler{stores: stores, quota: quota}
}

type storeRequest struct {
	BusinessName    string            `json:"business_name"`
	Category        string            `json:"category"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	City            string            `json:"city"`
	Country         string            `json:"country"`
	WhatsappNumber  string            `json:"whatsapp_number"`
	BusinessEmail   string            `json:"business_email" validate:"omitempty,email"`
	SocialHandles   map[string]string `json:"social_handles"`
	DeliveryOptions []string          `json:"delivery_options"`
	LogoURL         string            `json:"logo_url"`
	CoverURL        string            `json:"cover_url"`
	ThemeID         string            `json:"theme_id"`
	IsActive        *bool             `json:"is_active"`
}

func (r storeRequest) toInput() services.StoreInput {
	return services.StoreInput{
		BusinessName:    r.BusinessName,
		Category:        r.Category,
		Description:     r.Description,
		Location:        r.Location,
		City:            r.City,
		Country:         r.Country,
		WhatsappNumber:  r.WhatsappNumber,
		BusinessEmail:   r.BusinessEmail,
		SocialHandles:   r.SocialHandles,
		DeliveryOptions: r.DeliveryOptions,
		LogoURL:         r.LogoURL,
		CoverURL:        r.CoverURL,
		ThemeID:         r.ThemeID,
		IsActive:        r.IsActive,
	}
}

// Create creates the authenticated user's store.
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	store, err := h.stores.CreateStore(user, req.toInput())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"store":   store,
	})
}

// Update applies partial updates to the user's store.
func (h *StoreHandler) Update(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	store, err := h.stores.UpdateStore(user, req.toInput())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"store":   store,
	})
}

// Mine returns the user's store together with the remaining product quota.
func (h *StoreHandler) Mine(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	store, err := h.stores.GetByUser(user.ID)
	if err != nil {
		return err
	}

	quota, err := h.quota.Available(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"store":   store,
		"quota":   quota,
	})
}

// BySlug serves the public storefront payload.
func (h *StoreHandler) BySlug(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"store":   store,
	})
}

// Deactivate hides the user's store from the public storefront.
func (h *StoreHandler) Deactivate(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.stores.Deactivate(user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Quota reports the user's remaining product slots.
func (h *StoreHandler) Quota(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	quota, err := h.quota.Available(user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"quota":   quota,
	})
}
