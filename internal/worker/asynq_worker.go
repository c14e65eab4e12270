package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/service"

	"github.com/hibiken/asynq"
)

// Deliverer 通知投递
type Deliverer interface {
	Deliver(ctx context.Context, payload queue.NotificationPayload) error
}

// Consumer 异步任务消费者
type Consumer struct {
	notifier Deliverer
}

// NewConsumer 创建消费者
func NewConsumer(notifier Deliverer) *Consumer {
	return &Consumer{notifier: notifier}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmationEmail, c.handleNotification)
	mux.HandleFunc(queue.TaskOrderCancelledEmail, c.handleNotification)
	mux.HandleFunc(queue.TaskPasswordResetEmail, c.handleNotification)
	mux.HandleFunc(queue.TaskPasswordChangedEmail, c.handleNotification)
}

func (c *Consumer) handleNotification(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.notifier == nil {
		logger.Debugw("worker_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationPayload(task)
	if err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "task", task.Type(), "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	expected, err := queue.TaskTypeForKind(payload.Kind)
	if err != nil || expected != task.Type() {
		logger.Warnw("worker_notification_kind_mismatch", "task", task.Type(), "kind", payload.Kind)
		return fmt.Errorf("%w: kind %q does not match task %s", asynq.SkipRetry, payload.Kind, task.Type())
	}
	if payload.Recipient == "" {
		logger.Debugw("worker_notification_skip_empty_recipient", "task", task.Type())
		return nil
	}

	if err := c.notifier.Deliver(ctx, payload); err != nil {
		if isPermanentDeliveryError(err) {
			logger.Warnw("worker_notification_dropped", "task", task.Type(), "recipient", payload.Recipient, "error", err)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Warnw("worker_notification_send_failed", "task", task.Type(), "recipient", payload.Recipient, "error", err)
		return err
	}
	return nil
}

func isPermanentDeliveryError(err error) bool {
	return errors.Is(err, service.ErrEmailRecipientRejected) ||
		errors.Is(err, service.ErrInvalidEmail) ||
		errors.Is(err, service.ErrEmailServiceNotConfigured)
}
