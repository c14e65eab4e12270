package service

import (
	"context"
	"errors"

	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/queue"
)

// NotificationService 异步通知（尽力而为，失败不影响业务结果）
type NotificationService struct {
	queueClient *queue.Client
	mailer      Mailer
	// dispatch 队列不可用时的后台执行方式，测试中可替换为同步执行
	dispatch func(fn func())
}

// NewNotificationService 创建通知服务
func NewNotificationService(queueClient *queue.Client, mailer Mailer) *NotificationService {
	return &NotificationService{
		queueClient: queueClient,
		mailer:      mailer,
		dispatch:    func(fn func()) { go fn() },
	}
}

// Send 投递通知：优先入队，队列禁用或入队失败时在后台协程直接发送。
// payload 必须是已复制出事务的数据。
func (s *NotificationService) Send(ctx context.Context, payload queue.NotificationPayload) {
	if s == nil {
		return
	}
	if payload.Recipient == "" {
		logger.Warnw("notification_skip_empty_recipient", "kind", payload.Kind)
		return
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueNotification(payload)
		if err == nil {
			return
		}
		logger.Warnw("notification_enqueue_failed", "kind", payload.Kind, "recipient", payload.Recipient, "error", err)
	}
	s.dispatch(func() {
		if err := s.Deliver(context.Background(), payload); err != nil {
			logger.Warnw("notification_send_failed", "kind", payload.Kind, "recipient", payload.Recipient, "error", err)
		}
	})
}

// Deliver 渲染并发送邮件（worker 与后台回退共用）
func (s *NotificationService) Deliver(ctx context.Context, payload queue.NotificationPayload) error {
	if s == nil || s.mailer == nil {
		return ErrEmailServiceNotConfigured
	}
	subject, body, err := buildNotificationContent(payload)
	if err != nil {
		return err
	}
	if err := s.mailer.SendTextEmail(payload.Recipient, subject, body); err != nil {
		if errors.Is(err, ErrEmailServiceDisabled) {
			logger.Debugw("notification_email_disabled", "kind", payload.Kind, "recipient", payload.Recipient)
			return nil
		}
		return err
	}
	logger.Infow("notification_sent", "kind", payload.Kind, "recipient", payload.Recipient)
	return nil
}

// buildOrderSnapshot 从订单数据完整复制快照
func buildOrderSnapshot(order *models.Order, items []models.OrderItem) *queue.OrderSnapshot {
	if order == nil {
		return nil
	}
	lines := make([]queue.OrderLineSnapshot, 0, len(items))
	for _, item := range items {
		lines = append(lines, queue.OrderLineSnapshot{
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return &queue.OrderSnapshot{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		Currency:      order.Currency,
		SubtotalCents: order.SubtotalCents,
		ShippingCents: order.ShippingCents,
		TaxCents:      order.TaxCents,
		TotalCents:    order.TotalCents,
		Items:         lines,
	}
}
