package public

import (
	"strings"

	handlershared "github.com/mdsrtech/internal/http/handlers/shared"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/service"

	"github.com/gin-gonic/gin"
)

func productListInput(c *gin.Context) service.ProductListInput {
	page, pageSize := handlershared.PageQuery(c)
	onSale := strings.EqualFold(strings.TrimSpace(c.Query("on_sale")), "true")
	return service.ProductListInput{
		Page:     page,
		PageSize: pageSize,
		Sort:     strings.TrimSpace(c.Query("sort")),
		OnSale:   onSale,
	}
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	result, err := h.CatalogService.ListProducts(c.Request.Context(), productListInput(c))
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, result)
}

// GetProduct 按 ID 获取商品
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, product)
}

// GetProductBySlug 按 slug 获取商品
func (h *Handler) GetProductBySlug(c *gin.Context) {
	product, err := h.CatalogService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, product)
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, categories)
}

// ListCategoryProducts 分类下商品
func (h *Handler) ListCategoryProducts(c *gin.Context) {
	result, err := h.CatalogService.ListCategoryProducts(c.Request.Context(), c.Param("slug"), productListInput(c))
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, result)
}

// ListBrands 品牌列表
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.CatalogService.ListBrands(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, brands)
}

// Search 商品搜索，空关键词返回空列表
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	products, err := h.CatalogService.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"query": strings.TrimSpace(q), "items": products})
}
