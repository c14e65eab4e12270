package repository

import (
	"testing"

	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/models"
)

func TestProductRepositorySearchMatchesBrandAndCategoryCaseInsensitive(t *testing.T) {
	db := openRepositoryTestDB(t, "product_search")
	repo := NewProductRepository(db)

	brand := &models.Brand{Name: "NVIDIA", Slug: "nvidia"}
	category := &models.Category{Name: "Graphics Cards", Slug: "graphics-cards"}
	if err := db.Create(brand).Error; err != nil {
		t.Fatalf("create brand failed: %v", err)
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	gpu := createRepoTestProduct(t, db, "rtx-4090", "GeForce RTX 4090", 219999, true)
	if err := db.Model(gpu).Updates(map[string]interface{}{"brand_id": brand.ID, "category_id": category.ID}).Error; err != nil {
		t.Fatalf("assign brand failed: %v", err)
	}
	createRepoTestProduct(t, db, "desk-lamp", "Desk Lamp", 2999, true)
	createRepoTestProduct(t, db, "hidden-gpu", "Hidden Graphics", 1000, false)

	byBrand, err := repo.Search("nvidia", 0)
	if err != nil {
		t.Fatalf("search by brand failed: %v", err)
	}
	if len(byBrand) != 1 || byBrand[0].ID != gpu.ID {
		t.Fatalf("brand search should return the gpu only, got %+v", byBrand)
	}
	if byBrand[0].Brand == nil || byBrand[0].Brand.Name != "NVIDIA" {
		t.Fatalf("brand should be preloaded")
	}

	byCategory, err := repo.Search("GRAPHICS", 0)
	if err != nil {
		t.Fatalf("search by category failed: %v", err)
	}
	if len(byCategory) != 1 {
		t.Fatalf("inactive products must be excluded, got %d results", len(byCategory))
	}

	empty, err := repo.Search("   ", 0)
	if err != nil {
		t.Fatalf("empty search failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty query should return nothing, got %d", len(empty))
	}
}

func TestProductRepositoryListSortAndCategorySlug(t *testing.T) {
	db := openRepositoryTestDB(t, "product_list")
	repo := NewProductRepository(db)

	category := &models.Category{Name: "Laptops", Slug: "laptops"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	cheap := createRepoTestProduct(t, db, "cheap", "Cheap Laptop", 50000, true)
	pricey := createRepoTestProduct(t, db, "pricey", "Pricey Laptop", 150000, true)
	createRepoTestProduct(t, db, "mouse", "Mouse", 2000, true)
	if err := db.Model(&models.Product{}).Where("id IN ?", []uint{cheap.ID, pricey.ID}).Update("category_id", category.ID).Error; err != nil {
		t.Fatalf("assign category failed: %v", err)
	}

	products, total, err := repo.List(ProductListFilter{
		CategorySlug: "laptops",
		Sort:         constants.ProductSortPriceDesc,
		OnlyActive:   true,
		Page:         1,
		PageSize:     10,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("want 2 laptops got total=%d len=%d", total, len(products))
	}
	if products[0].ID != pricey.ID {
		t.Fatalf("price_desc should list the pricey laptop first")
	}
}

func TestProductRepositoryGetByIDOnlyActive(t *testing.T) {
	db := openRepositoryTestDB(t, "product_get")
	repo := NewProductRepository(db)
	hidden := createRepoTestProduct(t, db, "hidden", "Hidden", 1000, false)

	got, err := repo.GetByID(hidden.ID, true)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("inactive product should not be returned to storefront")
	}
	got, err = repo.GetByID(hidden.ID, false)
	if err != nil || got == nil {
		t.Fatalf("admin lookup should find inactive product, err=%v", err)
	}
}

func TestProductPrimaryImageAndEffectivePrice(t *testing.T) {
	sale := int64(799)
	product := models.Product{
		PriceCents:     999,
		SalePriceCents: &sale,
		IsOnSale:       true,
		Images: []models.ProductImage{
			{URL: "b.png", Position: 2},
			{URL: "a.png", Position: 1},
		},
	}
	if product.EffectivePriceCents() != 799 {
		t.Fatalf("on-sale product should use sale price")
	}
	if product.PrimaryImageURL() != "a.png" {
		t.Fatalf("lowest position image should be the preview, got %s", product.PrimaryImageURL())
	}
	product.IsOnSale = false
	if product.EffectivePriceCents() != 999 {
		t.Fatalf("product off sale should use list price")
	}
	product.Images[0].IsPrimary = true
	if product.PrimaryImageURL() != "b.png" {
		t.Fatalf("primary flag should win over position")
	}
}
