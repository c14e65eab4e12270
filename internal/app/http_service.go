package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/mdsrtech/internal/config"
)

// APIService 对外 REST 接口服务
type APIService struct {
	server *http.Server
}

// NewAPIService 按服务配置创建 HTTP 服务
func NewAPIService(cfg config.ServerConfig, handler http.Handler) *APIService {
	return &APIService{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: secondsOr(cfg.ReadHeaderTimeoutSeconds, 10),
			IdleTimeout:       secondsOr(cfg.IdleTimeoutSeconds, 120),
		},
	}
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// Addr 监听地址
func (s *APIService) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Name 服务名称
func (s *APIService) Name() string {
	return ModeAPI
}

// Start 阻塞监听，正常关闭时返回 nil
func (s *APIService) Start(_ context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("api server not initialized")
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop 等待进行中的请求（含 Stripe webhook）处理完毕
func (s *APIService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
