package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/services"
)

// RatingHandler bundles dependencies for rating endpoints.
type RatingHandler struct {
	ratings  *services.RatingService
	stores   *services.StoreService
	products *services.ProductService
}

// NewRatingHandler constructs a RatingHandler.
func NewRatingHandler(ratings *services.RatingService, stores *services.StoreService, products *services.ProductService) *RatingHandler {
	return &RatingHandler{ratings: ratings, stores: stores, products: products}
}

type ratingRequest struct {
	Fingerprint string   `json:"fingerprint" validate:"required"`
	Rating      *float64 `json:"rating"`
	Review      *string  `json:"review"`
	Device      string   `json:"device"`
	Browser     string   `json:"browser"`
	Platform    string   `json:"platform"`
	Name        string   `json:"name"`
}

func (h *RatingHandler) ratingInput(c *fiber.Ctx, req ratingRequest) services.RatingInput {
	return services.RatingInput{
		Fingerprint: req.Fingerprint,
		Rating:      req.Rating,
		Review:      req.Review,
		IP:          c.IP(),
		Device:      req.Device,
		Meta: models.RatingMeta{
			UserAgent: c.Get("User-Agent"),
			Browser:   req.Browser,
			Platform:  req.Platform,
			Name:      req.Name,
		},
	}
}

// RateStore submits or replaces the visitor's store rating.
func (h *RatingHandler) RateStore(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req ratingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	rating, err := h.ratings.SubmitStoreRating(store.ID, h.ratingInput(c, req))
	if err != nil {
		return err
	}

	summary, err := h.ratings.StoreSummary(store.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"rating":  rating,
		"summary": summary,
	})
}

// StoreSummary serves the live average, count and star distribution.
func (h *RatingHandler) StoreSummary(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	summary, err := h.ratings.StoreSummary(store.ID)
	if err != nil {
		return err
	}
	distribution, err := h.ratings.StoreDistribution(store.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"summary":      summary,
		"distribution": distribution,
	})
}

// RateProduct submits or replaces the visitor's product rating and returns
// the recomputed aggregates.
func (h *RatingHandler) RateProduct(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req ratingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	rating, err := h.ratings.SubmitProductRating(product.ID, h.ratingInput(c, req))
	if err != nil {
		return err
	}

	updated, err := h.products.GetByID(product.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"rating":  rating,
		"product": updated,
	})
}

type likeRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
}

// ToggleLike flips the visitor's like on a product.
func (h *RatingHandler) ToggleLike(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	var req likeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	liked, err := h.ratings.ToggleLike(product.ID, req.Fingerprint)
	if err != nil {
		return err
	}

	updated, err := h.products.GetByID(product.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"liked":   liked,
		"likes":   updated.Likes,
	})
}

// DeleteProductRating removes the visitor's product rating.
func (h *RatingHandler) DeleteProductRating(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	fingerprint := c.Query("fingerprint")
	if fingerprint == "" {
		return services.ValidationError("fingerprint is required")
	}

	if err := h.ratings.DeleteProductRating(product.ID, fingerprint); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// HasRated reports whether the fingerprint already rated the product.
func (h *RatingHandler) HasRated(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	fingerprint := c.Query("fingerprint")
	if fingerprint == "" {
		return services.ValidationError("fingerprint is required")
	}

	rated, err := h.ratings.HasRated(product.ID, fingerprint)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"has_rated": rated,
	})
}
