package public

import "github.com/mdsrtech/internal/provider"

// Handler 前台接口处理器入口
// 说明：该处理器用于商品浏览、账号、购物车、结算与订单 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
