package admin

import (
	"errors"

	handlershared "github.com/mdsrtech/internal/http/handlers/shared"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/service"

	"github.com/gin-gonic/gin"
)

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidProduct):
		respondError(c, response.CodeBadRequest, "error.product_invalid", nil)
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeConflict, "error.slug_exists", nil)
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
	default:
		respondError(c, response.CodeInternal, "error.product_save_failed", err)
	}
}

// CreateProduct 新增商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.AdminProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.AdminService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品价格、促销、库存、上下架与图片
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id", "error.product_not_found")
	if !ok {
		return
	}
	var req service.AdminProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.AdminService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, product)
}
