package worker

import (
	"context"
	"errors"
	"time"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 通知投递 worker
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建 worker；队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	mux.Use(logTaskMiddleware)
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务结束；asynq 自身按 ShutdownTimeout 控制等待时长
func (s *Service) Stop(_ context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

func logTaskMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		start := time.Now()
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		err := next.ProcessTask(ctx, task)
		fields := []interface{}{
			"task", task.Type(),
			"task_id", taskID,
			"retry", retried,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.Warnw("worker_task_failed", append(fields, "error", err)...)
			return err
		}
		logger.Debugw("worker_task_done", fields...)
		return nil
	})
}
