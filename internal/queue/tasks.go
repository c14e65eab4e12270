package queue

import (
	"encoding/json"
	"fmt"

	"github.com/mdsrtech/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmationEmail 订单确认邮件任务
	TaskOrderConfirmationEmail = constants.TaskOrderConfirmationEmail
	// TaskOrderCancelledEmail 订单取消邮件任务
	TaskOrderCancelledEmail = constants.TaskOrderCancelledEmail
	// TaskPasswordResetEmail 密码重置邮件任务
	TaskPasswordResetEmail = constants.TaskPasswordResetEmail
	// TaskPasswordChangedEmail 密码已修改邮件任务
	TaskPasswordChangedEmail = constants.TaskPasswordChangedEmail
)

// OrderLineSnapshot 订单行快照
type OrderLineSnapshot struct {
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// OrderSnapshot 订单快照，入队前从事务数据中完整复制
type OrderSnapshot struct {
	OrderID       uint                `json:"order_id"`
	OrderNo       string              `json:"order_no"`
	Currency      string              `json:"currency"`
	SubtotalCents int64               `json:"subtotal_cents"`
	ShippingCents int64               `json:"shipping_cents"`
	TaxCents      int64               `json:"tax_cents"`
	TotalCents    int64               `json:"total_cents"`
	Items         []OrderLineSnapshot `json:"items"`
}

// NotificationPayload 通知任务载荷
type NotificationPayload struct {
	Kind          string         `json:"kind"`
	Recipient     string         `json:"recipient"`
	RecipientName string         `json:"recipient_name"`
	Locale        string         `json:"locale"`
	Order         *OrderSnapshot `json:"order,omitempty"`
	Link          string         `json:"link,omitempty"`
}

// TaskTypeForKind 通知类型对应的任务类型
func TaskTypeForKind(kind string) (string, error) {
	switch kind {
	case constants.NotifyKindOrderConfirmation:
		return TaskOrderConfirmationEmail, nil
	case constants.NotifyKindOrderCancelled:
		return TaskOrderCancelledEmail, nil
	case constants.NotifyKindPasswordReset:
		return TaskPasswordResetEmail, nil
	case constants.NotifyKindPasswordChanged:
		return TaskPasswordChangedEmail, nil
	default:
		return "", fmt.Errorf("unknown notification kind: %s", kind)
	}
}

// NewNotificationTask 创建通知任务
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	taskType, err := TaskTypeForKind(payload.Kind)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// ParseNotificationPayload 解析通知任务载荷
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
