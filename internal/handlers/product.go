package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storehub/internal/middleware"
	"github.com/example/storehub/internal/services"
	"github.com/example/storehub/internal/utils"
)

// ProductHandler bundles dependencies for catalog endpoints.
type ProductHandler struct {
	products *services.ProductService
	stores   *services.StoreService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products *services.ProductService, stores *services.StoreService) *ProductHandler {
	return &ProductHandler{products: products, stores: stores}
}

type productImageRequest struct {
	URL          string `json:"url" validate:"required"`
	Name         string `json:"name"`
	IsPrimary    bool   `json:"is_primary"`
	SortOrder    int    `json:"sort_order"`
	MimeType     string `json:"mime_type"`
	OriginalName string `json:"original_name"`
	Size         string `json:"size"`
}

type productRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       *float64              `json:"price"`
	Category    string                `json:"category"`
	IsActive    *bool                 `json:"is_active"`
	SortOrder   *int                  `json:"sort_order"`
	Images      []productImageRequest `json:"images" validate:"dive"`
}

func (r productRequest) toInput() services.ProductInput {
	// A nil image list means "leave the gallery alone" on update, so nil is
	// preserved rather than mapped to an empty slice.
	var images []services.ProductImageInput
	if r.Images != nil {
		images = make([]services.ProductImageInput, len(r.Images))
	}
	for i, img := range r.Images {
		images[i] = services.ProductImageInput{
			URL:          img.URL,
			Name:         img.Name,
			IsPrimary:    img.IsPrimary,
			SortOrder:    img.SortOrder,
			MimeType:     img.MimeType,
			OriginalName: img.OriginalName,
			Size:         img.Size,
		}
	}
	return services.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
		Images:      images,
	}
}

// Create adds a product to the user's store, subject to the plan quota.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return services.ValidationError(err.Error())
	}

	product, err := h.products.CreateProduct(user, req.toInput())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// Update applies partial updates to a product the user owns.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	product, err := h.products.UpdateProduct(user, productID, req.toInput())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// Delete removes a product the user owns.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	if err := h.products.DeleteProduct(user, productID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Mine lists the user's catalog with filters and pagination.
func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	store, err := h.stores.GetByUser(user.ID)
	if err != nil {
		return err
	}

	pagination := utils.ParsePagination(c)
	filter := services.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     pagination.Page,
		Limit:    pagination.Limit,
	}
	if active := c.Query("is_active"); active != "" {
		isActive := active == "true"
		filter.IsActive = &isActive
	}

	products, total, err := h.products.ListProducts(store.ID, filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"total":    total,
		"page":     pagination.Page,
		"limit":    pagination.Limit,
	})
}

// BySlug serves the public product page payload.
func (h *ProductHandler) BySlug(c *fiber.Ctx) error {
	product, err := h.products.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// ByStoreSlug lists a store's active products for the public storefront.
func (h *ProductHandler) ByStoreSlug(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}

	pagination := utils.ParsePagination(c)
	active := true
	products, total, err := h.products.ListProducts(store.ID, services.ProductFilter{
		Category: c.Query("category"),
		IsActive: &active,
		Page:     pagination.Page,
		Limit:    pagination.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"total":    total,
		"page":     pagination.Page,
		"limit":    pagination.Limit,
	})
}
