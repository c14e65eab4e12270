package repository

import (
	"errors"
	"strings"

	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Search(query string, limit int) ([]models.Product, error)
	GetByID(id uint, onlyActive bool) (*models.Product, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	ReplaceImages(productID uint, images []models.ProductImage) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func preloadProductRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Brand").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, position ASC, id ASC")
		})
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("products.is_active = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filter.CategoryID)
	}
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query = query.Where("products.category_id IN (?)", r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if filter.BrandID != 0 {
		query = query.Where("products.brand_id = ?", filter.BrandID)
	}
	if filter.OnSale {
		query = query.Where("products.is_on_sale = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = r.applySearch(query, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	query = preloadProductRelations(query)

	if err := query.Order(productOrderClause(filter.Sort)).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Search 按标题、描述、品牌名、分类名模糊搜索上架商品
func (r *GormProductRepository) Search(q string, limit int) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Product{}, nil
	}
	query := r.db.Model(&models.Product{}).Where("products.is_active = ?", true)
	query = r.applySearch(query, q)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var products []models.Product
	if err := preloadProductRelations(query).Order("products.created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) applySearch(query *gorm.DB, q string) *gorm.DB {
	like := "%" + strings.ToLower(q) + "%"
	condition, argCount := buildLikeCondition(r.db, []string{
		"products.title",
		"products.description",
		"brands.name",
		"categories.name",
	})
	return query.
		Joins("LEFT JOIN brands ON brands.id = products.brand_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where(condition, repeatLikeArgs(like, argCount)...)
}

func productOrderClause(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case constants.ProductSortPriceAsc:
		return "products.price_cents ASC, products.id ASC"
	case constants.ProductSortPriceDesc:
		return "products.price_cents DESC, products.id DESC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint, onlyActive bool) (*models.Product, error) {
	var product models.Product
	query := preloadProductRelations(r.db.Model(&models.Product{}))
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	var product models.Product
	query := preloadProductRelations(r.db.Model(&models.Product{})).Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := preloadProductRelations(r.db.Model(&models.Product{})).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品（含图片）
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品基础字段
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("Brand", "Category", "Images").Save(product).Error
}

// ReplaceImages 替换商品图片
func (r *GormProductRepository) ReplaceImages(productID uint, images []models.ProductImage) error {
	if err := r.db.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ID = 0
		images[i].ProductID = productID
	}
	return r.db.Create(&images).Error
}
