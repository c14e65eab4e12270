package main

import (
	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"

	"gorm.io/gorm"
)

type seedImage struct {
	url string
	alt string
}

type seedProduct struct {
	title       string
	slug        string
	description string
	brand       string
	category    string
	priceCents  int64
	saleCents   int64
	salePercent int
	stock       int
	images      []seedImage
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	brands := []models.Brand{
		{Name: "Apple", Slug: "apple"},
		{Name: "Samsung", Slug: "samsung"},
		{Name: "Logitech", Slug: "logitech"},
		{Name: "Sony", Slug: "sony"},
	}
	brandIDs := map[string]uint{}
	for _, brand := range brands {
		var existing models.Brand
		err := models.DB.Where(models.Brand{Slug: brand.Slug}).Attrs(brand).FirstOrCreate(&existing).Error
		if err != nil {
			stdLog.Printf("Failed to create brand %s: %v", brand.Slug, err)
			continue
		}
		brandIDs[existing.Slug] = existing.ID
	}

	categories := []models.Category{
		{Name: "Laptops", Slug: "laptops", SortOrder: 1},
		{Name: "Phones", Slug: "phones", SortOrder: 2},
		{Name: "Audio", Slug: "audio", SortOrder: 3},
		{Name: "Accessories", Slug: "accessories", SortOrder: 4},
	}
	categoryIDs := map[string]uint{}
	for _, category := range categories {
		var existing models.Category
		err := models.DB.Where(models.Category{Slug: category.Slug}).Attrs(category).FirstOrCreate(&existing).Error
		if err != nil {
			stdLog.Printf("Failed to create category %s: %v", category.Slug, err)
			continue
		}
		categoryIDs[existing.Slug] = existing.ID
	}

	products := []seedProduct{
		{
			title: "MacBook Air 13\"", slug: "macbook-air-13", brand: "apple", category: "laptops",
			description: "M3 chip, 8GB unified memory, 256GB SSD.",
			priceCents:  149900, stock: 12,
			images: []seedImage{{url: "https://cdn.mdsrtech.local/products/macbook-air-13.png", alt: "MacBook Air"}},
		},
		{
			title: "Galaxy S24", slug: "galaxy-s24", brand: "samsung", category: "phones",
			description: "6.2\" display, 128GB storage.",
			priceCents:  109999, saleCents: 94999, salePercent: 14, stock: 30,
			images: []seedImage{
				{url: "https://cdn.mdsrtech.local/products/galaxy-s24-front.png", alt: "Front"},
				{url: "https://cdn.mdsrtech.local/products/galaxy-s24-back.png", alt: "Back"},
			},
		},
		{
			title: "MX Master 3S", slug: "mx-master-3s", brand: "logitech", category: "accessories",
			description: "Wireless performance mouse with quiet clicks.",
			priceCents:  12999, stock: 80,
			images: []seedImage{{url: "https://cdn.mdsrtech.local/products/mx-master-3s.png", alt: "MX Master 3S"}},
		},
		{
			title: "WH-1000XM5", slug: "wh-1000xm5", brand: "sony", category: "audio",
			description: "Noise cancelling wireless headphones.",
			priceCents:  49999, saleCents: 39999, salePercent: 20, stock: 18,
			images: []seedImage{{url: "https://cdn.mdsrtech.local/products/wh-1000xm5.png", alt: "WH-1000XM5"}},
		},
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range products {
			var count int64
			if err := tx.Model(&models.Product{}).Where("slug = ?", item.slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				stdLog.Printf("Product already exists: %s", item.slug)
				continue
			}
			product := models.Product{
				Title:       item.title,
				Slug:        item.slug,
				Description: item.description,
				PriceCents:  item.priceCents,
				SalePercent: item.salePercent,
				Stock:       item.stock,
				IsActive:    true,
			}
			if id, ok := brandIDs[item.brand]; ok {
				product.BrandID = &id
			}
			if id, ok := categoryIDs[item.category]; ok {
				product.CategoryID = &id
			}
			if item.saleCents > 0 {
				sale := item.saleCents
				product.SalePriceCents = &sale
				product.IsOnSale = true
			}
			for i, image := range item.images {
				product.Images = append(product.Images, models.ProductImage{
					URL:       image.url,
					Alt:       image.alt,
					IsPrimary: i == 0,
					Position:  i,
				})
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			stdLog.Printf("Created product: %s", item.slug)
		}
		return nil
	})
	if err != nil {
		stdLog.Fatalf("Failed to seed products: %v", err)
	}
	stdLog.Printf("Seed completed")
}
