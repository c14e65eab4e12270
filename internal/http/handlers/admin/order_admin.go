package admin

import (
	"strings"

	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminOrders 后台订单列表
func (h *Handler) GetAdminOrders(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	orders, total, err := h.OrderService.ListAdmin(repository.OrderListFilter{
		Page:        query.Page,
		PageSize:    query.PageSize,
		UserID:      query.UserID,
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(query.Page, query.PageSize, total))
}

// GetAdminPayments 后台支付记录列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	payments, total, err := h.OrderService.ListPayments(repository.PaymentListFilter{
		Page:        query.Page,
		PageSize:    query.PageSize,
		UserID:      query.UserID,
		Provider:    strings.TrimSpace(c.Query("provider")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: query.CreatedFrom,
		CreatedTo:   query.CreatedTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, payments, response.BuildPagination(query.Page, query.PageSize, total))
}

// GetUserLoginLogs 用户登录日志列表
func (h *Handler) GetUserLoginLogs(c *gin.Context) {
	query, err := parseListQuery(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	logs, total, err := h.UserLoginLogService.ListForAdmin(repository.UserLoginLogListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		UserID:   query.UserID,
		Email:    strings.TrimSpace(c.Query("email")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(query.Page, query.PageSize, total))
}
