package public

import (
	"github.com/mdsrtech/internal/http/response"

	"github.com/gin-gonic/gin"
)

// WishlistToggleRequest 收藏切换请求
type WishlistToggleRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// ListWishlist 收藏商品列表
func (h *Handler) ListWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	products, err := h.WishlistService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"items": products})
}

// ListWishlistIDs 收藏商品 ID 列表
func (h *Handler) ListWishlistIDs(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	ids, err := h.WishlistService.ListIDs(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"product_ids": ids})
}

// ToggleWishlist 收藏或取消收藏
func (h *Handler) ToggleWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	inWishlist, err := h.WishlistService.Toggle(uid, req.ProductID)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.wishlist_update_failed")
		return
	}
	response.Success(c, gin.H{"product_id": req.ProductID, "in_wishlist": inWishlist})
}
