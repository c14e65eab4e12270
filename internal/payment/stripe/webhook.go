package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mdsrtech/internal/logger"

	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// WebhookEvent Webhook 解析结果
type WebhookEvent struct {
	ID      string
	Type    string
	Session *SessionDetails
}

// ParseWebhook 校验签名并解析事件；未配置签名密钥时跳过校验（仅限开发环境）
func (g *Gateway) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	var event stripeapi.Event
	if g == nil || g.webhookSecret == "" {
		logger.Warnw("stripe_webhook_signature_skipped", "reason", "webhook_secret_empty")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
	} else {
		if strings.TrimSpace(signatureHeader) == "" {
			return nil, fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
		}
		verified, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		event = verified
	}

	result := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return result, nil
	}
	if strings.HasPrefix(result.Type, "checkout.session.") {
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		}
		result.Session = toSessionDetails(&session)
	}
	return result, nil
}
