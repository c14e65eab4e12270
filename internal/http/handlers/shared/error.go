package shared

import (
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/i18n"
	"github.com/mdsrtech/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id、method、path 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	fields := make([]interface{}, 0, 6)
	if id := c.GetString("request_id"); id != "" {
		fields = append(fields, "request_id", id)
	}
	if c.Request != nil {
		fields = append(fields, "method", c.Request.Method, "path", c.FullPath())
	}
	if len(fields) == 0 {
		return logger.S()
	}
	return logger.SW(fields...)
}

// RespondError 按 i18n key 返回错误
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 返回指定消息；携带原始错误时按状态码分级记录
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Infow("handler_rejected", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
