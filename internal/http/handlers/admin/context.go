package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/mdsrtech/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.CurrentUserID(c)
}

func requestID(c *gin.Context) string {
	return handlershared.RequestID(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// listQuery 后台列表通用查询参数
type listQuery struct {
	Page        int
	PageSize    int
	UserID      uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func parseListQuery(c *gin.Context) (listQuery, error) {
	page, pageSize := handlershared.PageQuery(c)
	query := listQuery{Page: page, PageSize: pageSize}

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return query, err
		}
		query.UserID = uint(id)
	}
	var err error
	if query.CreatedFrom, err = parseTimeNullable(strings.TrimSpace(c.Query("created_from"))); err != nil {
		return query, err
	}
	if query.CreatedTo, err = parseTimeNullable(strings.TrimSpace(c.Query("created_to"))); err != nil {
		return query, err
	}
	return query, nil
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
