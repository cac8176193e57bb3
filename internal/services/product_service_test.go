package services

import (
	"fmt"
	"testing"

	"github.com/example/storehub/internal/models"
)

func priceOf(v float64) *float64 { return &v }

func TestCreateProductAssignsFirstImagePrimary(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	product, err := svc.CreateProduct(user, ProductInput{
		Name:  "Sneakers",
		Price: priceOf(49.99),
		Images: []ProductImageInput{
			{URL: "https://cdn.example.com/1.jpg"},
			{URL: "https://cdn.example.com/2.jpg"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(product.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(product.Images))
	}

	primaries := 0
	for _, img := range product.Images {
		if img.Meta.Data().IsPrimary {
			primaries++
			if img.URL != "https://cdn.example.com/1.jpg" {
				t.Fatalf("expected first image primary, got %s", img.URL)
			}
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary, got %d", primaries)
	}
}

func TestCreateProductRejectsMultiplePrimariesBeforeWrite(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	_, err := svc.CreateProduct(user, ProductInput{
		Name:  "Sneakers",
		Price: priceOf(10),
		Images: []ProductImageInput{
			{URL: "https://cdn.example.com/1.jpg", IsPrimary: true},
			{URL: "https://cdn.example.com/2.jpg", IsPrimary: true},
		},
	})
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// nothing written
	var products, images int64
	db.Model(&models.Product{}).Count(&products)
	db.Model(&models.ProductImage{}).Count(&images)
	if products != 0 || images != 0 {
		t.Fatalf("expected no writes, got %d products %d images", products, images)
	}
}

func TestCreateProductRejectsTooManyImages(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	images := make([]ProductImageInput, MaxProductImages+1)
	for i := range images {
		images[i] = ProductImageInput{URL: fmt.Sprintf("https://cdn.example.com/%d.jpg", i)}
	}

	_, err := svc.CreateProduct(user, ProductInput{Name: "Sneakers", Price: priceOf(10), Images: images})
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateProductEnforcesQuota(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	for i := 0; i < FreeProductLimit; i++ {
		if _, err := svc.CreateProduct(user, ProductInput{
			Name:  fmt.Sprintf("Product %d", i),
			Price: priceOf(10),
		}); err != nil {
			t.Fatalf("product %d: %v", i, err)
		}
	}

	_, err := svc.CreateProduct(user, ProductInput{Name: "One Too Many", Price: priceOf(10)})
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindQuota || appErr.Code != 600 {
		t.Fatalf("expected quota error with code 600, got %v", err)
	}
}

func TestCreateProductRequiresStore(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)

	_, err := svc.CreateProduct(user, ProductInput{Name: "Sneakers", Price: priceOf(10)})
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateProductSlugCollisionGetsSuffix(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	first, err := svc.CreateProduct(user, ProductInput{Name: "Sneakers", Price: priceOf(10)})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.CreateProduct(user, ProductInput{Name: "Sneakers", Price: priceOf(20)})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Slug != "sneakers" || second.Slug != "sneakers-2" {
		t.Fatalf("unexpected slugs %q %q", first.Slug, second.Slug)
	}
}

func TestUpdateProductOwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	owner := createTestUser(t, db, "owner@example.com", false)
	ownerStore := createTestStore(t, db, owner)
	product := createTestProduct(t, db, ownerStore, "Sneakers")

	intruder := createTestUser(t, db, "intruder@example.com", false)
	createTestStore(t, db, intruder)

	_, err := svc.UpdateProduct(intruder, product.ID, ProductInput{Name: "Hijacked"})
	appErr, ok := AsAppError(err)
	if !ok || appErr.Kind != KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteProductRemovesImages(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	product, err := svc.CreateProduct(user, ProductInput{
		Name:   "Sneakers",
		Price:  priceOf(10),
		Images: []ProductImageInput{{URL: "https://cdn.example.com/1.jpg"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteProduct(user, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var images int64
	db.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Count(&images)
	if images != 0 {
		t.Fatalf("expected images removed, got %d", images)
	}
}

func TestListProductsFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "premium@example.com", true)
	store := createTestStore(t, db, user)

	for i := 0; i < 8; i++ {
		category := "shoes"
		if i%2 == 0 {
			category = "bags"
		}
		if _, err := svc.CreateProduct(user, ProductInput{
			Name:     fmt.Sprintf("Item %d", i),
			Price:    priceOf(float64(i)),
			Category: category,
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	products, total, err := svc.ListProducts(store.ID, ProductFilter{Category: "shoes"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || len(products) != 4 {
		t.Fatalf("expected 4 shoes, got total %d len %d", total, len(products))
	}

	page, total, err := svc.ListProducts(store.ID, ProductFilter{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if total != 8 || len(page) != 3 {
		t.Fatalf("expected page of 3 from 8, got total %d len %d", total, len(page))
	}
}

func TestUpdateProductReplacesImages(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, NewQuotaService(db), newTestLogger())
	user := createTestUser(t, db, "owner@example.com", false)
	createTestStore(t, db, user)

	product, err := svc.CreateProduct(user, ProductInput{
		Name:  "Sneakers",
		Price: priceOf(10),
		Images: []ProductImageInput{
			{URL: "https://cdn.example.com/old-1.jpg"},
			{URL: "https://cdn.example.com/old-2.jpg"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateProduct(user, product.ID, ProductInput{
		Images: []ProductImageInput{
			{URL: "https://cdn.example.com/new.jpg", IsPrimary: true},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Images) != 1 {
		t.Fatalf("expected gallery replaced, got %d images", len(updated.Images))
	}
	if updated.Images[0].URL != "https://cdn.example.com/new.jpg" {
		t.Fatalf("unexpected image %q", updated.Images[0].URL)
	}

	// a nil Images slice leaves the gallery alone
	kept, err := svc.UpdateProduct(user, product.ID, ProductInput{Name: "Renamed"})
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if len(kept.Images) != 1 {
		t.Fatalf("gallery must be untouched, got %d images", len(kept.Images))
	}
}
