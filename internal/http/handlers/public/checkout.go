package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/i18n"
	"github.com/mdsrtech/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 << 10

// CreateCheckoutSession 按购物车创建托管支付会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	result, err := h.CheckoutService.CreateSession(c.Request.Context(), uid)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// ConfirmCheckoutSession 支付完成后客户端轮询确认，重复确认返回 already_processed
func (h *Handler) ConfirmCheckoutSession(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locale := i18n.ResolveLocale(c)
	result, err := h.CheckoutService.ConfirmSession(c.Request.Context(), uid, c.Param("session_id"), locale)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// StripeWebhook 网关事件回调；签名失败返回真实 HTTP 400，其余失败返回 500 以触发重投
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		response.Status(c, http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	log.Infow("stripe_webhook_received", "client_ip", c.ClientIP(), "body_size", len(body))

	if err := h.CheckoutService.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, service.ErrWebhookSignatureInvalid) {
			log.Warnw("stripe_webhook_signature_invalid", "error", err)
			response.Status(c, http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		log.Errorw("stripe_webhook_handle_failed", "error", err)
		response.Status(c, http.StatusInternalServerError, gin.H{"error": "webhook handling failed"})
		return
	}
	response.Status(c, http.StatusOK, gin.H{"received": true})
}
