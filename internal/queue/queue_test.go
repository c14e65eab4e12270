package queue

import (
	"testing"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(nil)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("nil config should produce a disabled client")
	}
	if err := client.EnqueueNotification(NotificationPayload{Kind: constants.NotifyKindOrderConfirmation}); err != nil {
		t.Fatalf("disabled client should not fail: %v", err)
	}
}

func TestNotificationTaskRoundTrip(t *testing.T) {
	payload := NotificationPayload{
		Kind:      constants.NotifyKindOrderCancelled,
		Recipient: "buyer@example.com",
		Order: &OrderSnapshot{
			OrderNo: "01HZX",
			Items:   []OrderLineSnapshot{{Title: "Cable", Quantity: 2}},
		},
	}
	task, err := NewNotificationTask(payload)
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskOrderCancelledEmail {
		t.Fatalf("task type want %s got %s", TaskOrderCancelledEmail, task.Type())
	}
	parsed, err := ParseNotificationPayload(task)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Order == nil || len(parsed.Order.Items) != 1 || parsed.Order.Items[0].Title != "Cable" {
		t.Fatalf("order snapshot lost in payload: %+v", parsed.Order)
	}
}

func TestUnknownKindIsRejected(t *testing.T) {
	if _, err := NewNotificationTask(NotificationPayload{Kind: "sms"}); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380})
	if opt.Addr != "redis:6380" {
		t.Fatalf("unexpected addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10 got %d", cfg.Concurrency)
	}
	if cfg.Queues[MailQueue] != 1 {
		t.Fatalf("mail queue should be served by default")
	}
}
