package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/services"
)

// PaymentHandler bundles dependencies for subscription endpoints.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Plans lists active subscription plans.
func (h *PaymentHandler) Plans(c *fiber.Ctx) error {
	plans, err := h.payments.ListPlans(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"plans":   plans,
	})
}

type initiateRequest struct {
	PlanID      string `json:"plan_id" validate:"required,uuid4"`
	RedirectURL string `json:"redirect_url" validate:"required,url"`
}

// Initiate starts a premium upgrade and returns the provider checkout link.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return services.ValidationError("invalid plan id")
	}

	link, payment, err := h.payments.InitiatePayment(c.Context(), user, planID, req.RedirectURL)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"checkout_url": link,
		"reference":    payment.ReferenceID,
	})
}

// Verify confirms a payment by reference and activates premium on success.
// Hit by the provider redirect, so it is public.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	reference := c.Query("reference")
	if reference == "" {
		return services.ValidationError("reference is required")
	}

	payment, err := h.payments.VerifyPayment(c.Context(), reference)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
	})
}
