package public

import (
	handlershared "github.com/mdsrtech/internal/http/handlers/shared"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/i18n"

	"github.com/gin-gonic/gin"
)

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	result, err := h.OrderService.List(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情，仅限本人
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(uid, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单：删除订单与订单项并异步发送取消通知
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseUintParam(c, "id", "error.order_not_found")
	if !ok {
		return
	}
	locale := i18n.ResolveLocale(c)
	result, err := h.OrderService.Cancel(c.Request.Context(), uid, orderID, locale)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "error.order_cancel_failed")
		return
	}
	response.Success(c, gin.H{
		"message":  i18n.T(locale, "message.order_cancelled"),
		"order_id": result.OrderID,
		"order_no": result.OrderNo,
	})
}
