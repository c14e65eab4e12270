package admin

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/mdsrtech/internal/http/handlers/shared"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/repository"
	"github.com/mdsrtech/internal/service"

	"github.com/gin-gonic/gin"
)

type setUserRolesPayload struct {
	Roles []string `json:"roles"`
}

// ListRoles 可分配角色列表
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AdminService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// GetUserRoles 查询用户角色与生效策略
func (h *Handler) GetUserRoles(c *gin.Context) {
	userID, ok := handlershared.ParseUintParam(c, "id", "error.user_not_found")
	if !ok {
		return
	}
	roles, err := h.AdminService.GetUserRoles(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	policies, err := h.AuthzService.GetUserPolicies(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"user_id":  userID,
		"roles":    roles,
		"policies": policies,
	})
}

// SetUserRoles 覆盖设置用户角色
func (h *Handler) SetUserRoles(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	userID, ok := handlershared.ParseUintParam(c, "id", "error.user_not_found")
	if !ok {
		return
	}
	var req setUserRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	roles, err := h.AdminService.AssignRoles(c.Request.Context(), service.AssignRolesInput{
		OperatorUserID: operatorID,
		TargetUserID:   userID,
		Roles:          req.Roles,
		RequestID:      requestID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.role_update_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}

// ListAuthzAuditLogs 角色变更审计日志
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.AuthzAuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   strings.TrimSpace(c.Query("action")),
	}
	for key, target := range map[string]*uint{
		"operator_user_id": &filter.OperatorUserID,
		"target_user_id":   &filter.TargetUserID,
	} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		*target = uint(id)
	}

	items, total, err := h.AdminService.ListAuditLogs(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(filter.Page, filter.PageSize, total))
}
