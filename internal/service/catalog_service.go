package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheTTL    = 2 * time.Minute
	catalogCachePrefix = "catalog:"
	searchResultLimit  = 50
)

// CatalogService 商品目录（只读），启用 redis 时缓存查询结果
type CatalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	loads        singleflight.Group
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, brandRepo repository.BrandRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
	}
}

// ProductListInput 商品列表查询参数
type ProductListInput struct {
	Page     int
	PageSize int
	Sort     string
	OnSale   bool
}

// ProductListResult 商品分页结果
type ProductListResult struct {
	Items    []models.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CategoryProductsResult 分类商品结果
type CategoryProductsResult struct {
	Category models.Category  `json:"category"`
	Items    []models.Product `json:"items"`
	Total    int64            `json:"total"`
}

func normalizeSort(sort string) string {
	switch strings.TrimSpace(sort) {
	case constants.ProductSortPriceAsc, constants.ProductSortPriceDesc:
		return strings.TrimSpace(sort)
	default:
		return constants.ProductSortNewest
	}
}

// cached 读缓存，未命中时同 key 并发请求只回源一次
func cached[T any](ctx context.Context, group *singleflight.Group, key string, load func() (T, error)) (T, error) {
	var value T
	hit, err := cache.GetJSON(ctx, catalogCachePrefix+key, &value)
	if err != nil {
		logger.Warnw("catalog_cache_get_failed", "key", key, "error", err)
	}
	if hit {
		return value, nil
	}
	shared, err, _ := group.Do(key, func() (interface{}, error) {
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, catalogCachePrefix+key, loaded, catalogCacheTTL); err != nil {
			logger.Warnw("catalog_cache_set_failed", "key", key, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		return value, err
	}
	return shared.(T), nil
}

// InvalidateCache 清理目录缓存
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if err := cache.DelByPattern(ctx, catalogCachePrefix+"*"); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}

// ListProducts 上架商品分页列表
func (s *CatalogService) ListProducts(ctx context.Context, input ProductListInput) (*ProductListResult, error) {
	page, pageSize := normalizePage(input.Page, input.PageSize)
	sort := normalizeSort(input.Sort)
	key := fmt.Sprintf("products:%d:%d:%s:%t", page, pageSize, sort, input.OnSale)
	return cached(ctx, &s.loads, key, func() (*ProductListResult, error) {
		items, total, err := s.productRepo.List(repository.ProductListFilter{
			Page:       page,
			PageSize:   pageSize,
			Sort:       sort,
			OnSale:     input.OnSale,
			OnlyActive: true,
		})
		if err != nil {
			return nil, err
		}
		return &ProductListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
	})
}

// GetProduct 按 ID 获取上架商品
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return cached(ctx, &s.loads, fmt.Sprintf("product:id:%d", id), func() (*models.Product, error) {
		product, err := s.productRepo.GetByID(id, true)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		return product, nil
	})
}

// GetProductBySlug 按 slug 获取上架商品
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	return cached(ctx, &s.loads, "product:slug:"+slug, func() (*models.Product, error) {
		product, err := s.productRepo.GetBySlug(slug, true)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		return product, nil
	})
}

// ListCategories 分类列表
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cached(ctx, &s.loads, "categories", s.categoryRepo.List)
}

// ListBrands 品牌列表
func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return cached(ctx, &s.loads, "brands", s.brandRepo.List)
}

// ListCategoryProducts 分类下的上架商品
func (s *CatalogService) ListCategoryProducts(ctx context.Context, slug string, input ProductListInput) (*CategoryProductsResult, error) {
	slug = strings.TrimSpace(slug)
	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)
	sort := normalizeSort(input.Sort)
	key := fmt.Sprintf("category:%s:%d:%d:%s", slug, page, pageSize, sort)
	return cached(ctx, &s.loads, key, func() (*CategoryProductsResult, error) {
		items, total, err := s.productRepo.List(repository.ProductListFilter{
			Page:       page,
			PageSize:   pageSize,
			CategoryID: category.ID,
			Sort:       sort,
			OnlyActive: true,
		})
		if err != nil {
			return nil, err
		}
		return &CategoryProductsResult{Category: *category, Items: items, Total: total}, nil
	})
}

// Search 不区分大小写的子串搜索；空查询返回空列表
func (s *CatalogService) Search(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Product{}, nil
	}
	return cached(ctx, &s.loads, "search:"+strings.ToLower(q), func() ([]models.Product, error) {
		return s.productRepo.Search(q, searchResultLimit)
	})
}
