package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/models"
	"github.com/example/storehub/internal/utils"
)

// MaxProductImages caps the gallery size per product.
const MaxProductImages = 10

// ProductImageInput describes one uploaded image.
type ProductImageInput struct {
	URL          string
	Name         string
	IsPrimary    bool
	SortOrder    int
	MimeType     string
	OriginalName string
	Size         string
}

// ProductInput carries product creation and update fields.
type ProductInput struct {
	Name        string
	Description string
	Price       *float64
	Category    string
	IsActive    *bool
	SortOrder   *int
	Images      []ProductImageInput
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// ProductService manages a store's catalog. Creation is quota-checked and
// writes the product plus its images in one transaction.
type ProductService struct {
	db     *gorm.DB
	quota  *QuotaService
	logger *logrus.Entry
}

// NewProductService creates a new ProductService.
func NewProductService(db *gorm.DB, quota *QuotaService, logger *logrus.Logger) *ProductService {
	return &ProductService{
		db:     db,
		quota:  quota,
		logger: logger.WithField("component", "product"),
	}
}

// CreateProduct adds a product to the user's store. Image rules are checked
// before anything is written: at most MaxProductImages, at most one primary,
// and when none is marked primary the first becomes primary.
func (s *ProductService) CreateProduct(user *models.User, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ValidationError("product name is required")
	}
	if in.Price == nil || *in.Price < 0 {
		return nil, ValidationError("price must be zero or positive")
	}
	images, err := normalizeImages(in.Images)
	if err != nil {
		return nil, err
	}

	var store models.Store
	err = s.db.Where("user_id = ?", user.ID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("create a store before adding products")
	}
	if err != nil {
		return nil, Internal(err)
	}

	if err := s.quota.EnsureCanCreate(user); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(in.Name)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:     store.ID,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
		IsActive:    true,
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		product.SortOrder = *in.SortOrder
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		for _, img := range images {
			record := models.ProductImage{
				ProductID: product.ID,
				URL:       img.URL,
				Name:      img.Name,
				Size:      img.Size,
				Meta: datatypes.NewJSONType(models.ImageMeta{
					IsPrimary:    img.IsPrimary,
					SortOrder:    img.SortOrder,
					MimeType:     img.MimeType,
					OriginalName: img.OriginalName,
				}),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"product_id": product.ID, "store_id": store.ID}).Info("product created")
	return s.GetByID(product.ID)
}

// UpdateProduct applies partial updates to a product the user owns. A non-nil
// Images slice replaces the whole gallery under the same rules as creation.
func (s *ProductService) UpdateProduct(user *models.User, productID uuid.UUID, in ProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(user, productID)
	if err != nil {
		return nil, err
	}

	var images []ProductImageInput
	if in.Images != nil {
		images, err = normalizeImages(in.Images)
		if err != nil {
			return nil, err
		}
	}

	if in.Name != "" {
		product.Name = in.Name
	}
	if in.Description != "" {
		product.Description = in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, ValidationError("price must be zero or positive")
		}
		product.Price = *in.Price
	}
	if in.Category != "" {
		product.Category = in.Category
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.SortOrder != nil {
		product.SortOrder = *in.SortOrder
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return err
		}
		if in.Images == nil {
			return nil
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		for _, img := range images {
			record := models.ProductImage{
				ProductID: product.ID,
				URL:       img.URL,
				Name:      img.Name,
				Size:      img.Size,
				Meta: datatypes.NewJSONType(models.ImageMeta{
					IsPrimary:    img.IsPrimary,
					SortOrder:    img.SortOrder,
					MimeType:     img.MimeType,
					OriginalName: img.OriginalName,
				}),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, Internal(err)
	}
	return s.GetByID(product.ID)
}

// DeleteProduct removes a product the user owns, along with its images.
func (s *ProductService) DeleteProduct(user *models.User, productID uuid.UUID) error {
	product, err := s.ownedProduct(user, productID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		return Internal(err)
	}
	return nil
}

// GetByID loads a product with its images.
func (s *ProductService) GetByID(productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Images").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("product not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &product, nil
}

// GetBySlug loads an active product for the public product page.
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Images").Where("slug = ? AND is_active = ?", slug, true).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("product not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &product, nil
}

// ListProducts returns a filtered, paginated slice of a store's catalog.
func (s *ProductService) ListProducts(storeID uuid.UUID, filter ProductFilter) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("store_id = ?", storeID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, Internal(err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var products []models.Product
	err := query.Preload("Images").
		Order("sort_order ASC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, Internal(err)
	}
	return products, total, nil
}

func (s *ProductService) ownedProduct(user *models.User, productID uuid.UUID) (*models.Product, error) {
	store, err := s.storeOf(user)
	if err != nil {
		return nil, err
	}
	var product models.Product
	err = s.db.First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("product not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	if product.StoreID != store.ID {
		return nil, Forbidden("product belongs to another store")
	}
	return &product, nil
}

func (s *ProductService) storeOf(user *models.User) (*models.Store, error) {
	var store models.Store
	err := s.db.Where("user_id = ?", user.ID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("store not found")
	}
	if err != nil {
		return nil, Internal(err)
	}
	return &store, nil
}

func (s *ProductService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := s.db.Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", Internal(err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// normalizeImages validates the gallery rules and returns the slice with a
// primary image guaranteed when any images exist.
func normalizeImages(images []ProductImageInput) ([]ProductImageInput, error) {
	if len(images) > MaxProductImages {
		return nil, ValidationError(fmt.Sprintf("a product may have at most %d images", MaxProductImages))
	}
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, ValidationError("only one image may be marked primary")
	}
	if primaries == 0 && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images, nil
}
