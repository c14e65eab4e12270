package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/service"

	"github.com/hibiken/asynq"
)

type recordingDeliverer struct {
	err      error
	received []queue.NotificationPayload
}

func (d *recordingDeliverer) Deliver(_ context.Context, payload queue.NotificationPayload) error {
	d.received = append(d.received, payload)
	return d.err
}

func newTask(t *testing.T, payload queue.NotificationPayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewNotificationTask(payload)
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	return task
}

func TestHandleNotificationDelivers(t *testing.T) {
	deliverer := &recordingDeliverer{}
	consumer := NewConsumer(deliverer)
	payload := queue.NotificationPayload{
		Kind:      constants.NotifyKindOrderCancelled,
		Recipient: "amy@example.com",
		Order:     &queue.OrderSnapshot{OrderNo: "01X", Items: []queue.OrderLineSnapshot{{Title: "Mouse", Quantity: 1}}},
	}
	if err := consumer.handleNotification(t.Context(), newTask(t, payload)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(deliverer.received) != 1 {
		t.Fatalf("want 1 delivery, got %d", len(deliverer.received))
	}
	got := deliverer.received[0]
	if got.Order == nil || got.Order.OrderNo != "01X" || got.Order.Items[0].Title != "Mouse" {
		t.Fatalf("snapshot not carried through task: %+v", got)
	}
}

func TestHandleNotificationRetryPolicy(t *testing.T) {
	payload := queue.NotificationPayload{Kind: constants.NotifyKindPasswordChanged, Recipient: "bob@example.com"}

	transient := &recordingDeliverer{err: errors.New("smtp timeout")}
	err := NewConsumer(transient).handleNotification(t.Context(), newTask(t, payload))
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("transient error should be retried, got %v", err)
	}

	rejected := &recordingDeliverer{err: service.ErrEmailRecipientRejected}
	err = NewConsumer(rejected).handleNotification(t.Context(), newTask(t, payload))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("rejected recipient should skip retry, got %v", err)
	}
}

func TestHandleNotificationRejectsBadPayload(t *testing.T) {
	deliverer := &recordingDeliverer{}
	consumer := NewConsumer(deliverer)

	err := consumer.handleNotification(t.Context(), asynq.NewTask(queue.TaskPasswordResetEmail, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("bad json should skip retry, got %v", err)
	}

	task := asynq.NewTask(queue.TaskPasswordResetEmail, []byte(`{"kind":"order_confirmation","recipient":"a@example.com"}`))
	if err := consumer.handleNotification(t.Context(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("kind mismatch should skip retry, got %v", err)
	}

	empty := newTask(t, queue.NotificationPayload{Kind: constants.NotifyKindPasswordReset})
	if err := consumer.handleNotification(t.Context(), empty); err != nil {
		t.Fatalf("empty recipient should be skipped, got %v", err)
	}
	if len(deliverer.received) != 0 {
		t.Fatalf("nothing should be delivered, got %d", len(deliverer.received))
	}
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(&recordingDeliverer{})); err == nil {
		t.Fatalf("disabled queue should fail")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("nil consumer should fail")
	}
}
