package public

import "github.com/mailpulse/mailpulse/internal/provider"

// Handler 租户侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建租户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
