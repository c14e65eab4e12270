package shared

import (
	"strconv"
	"strings"

	"github.com/mdsrtech/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 上下文键，由 router 中间件写入
const (
	ContextUserIDKey    = "user_id"
	ContextRequestIDKey = "request_id"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CurrentUserID 读取鉴权中间件写入的用户 ID，缺失时写回 401
func CurrentUserID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(ContextUserIDKey)
	uid, isUint := id.(uint)
	if !ok || !isUint || uid == 0 {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	return uid, true
}

// RequestID 当前请求 ID
func RequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}

// ParseUintParam 解析路径中的正整数 ID，失败时直接写回 400
func ParseUintParam(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}

// QueryInt 读取整型查询参数，缺失或非法时返回默认值
func QueryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return fallback
	}
	return value
}

// NormalizePagination page 至少为 1，page_size 默认 20、上限 100
func NormalizePagination(page, pageSize int) (int, int) {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, min(pageSize, maxPageSize)
}

// PageQuery 读取 page / page_size 查询参数并归一化
func PageQuery(c *gin.Context) (int, int) {
	return NormalizePagination(QueryInt(c, "page", 1), QueryInt(c, "page_size", defaultPageSize))
}
