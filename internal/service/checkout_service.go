package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/payment/stripe"
	"github.com/mdsrtech/internal/repository"
)

// PaymentGateway 支付网关适配器
type PaymentGateway interface {
	CreateSession(ctx context.Context, req stripe.SessionRequest) (*stripe.SessionRef, error)
	RetrieveSession(ctx context.Context, sessionID string) (*stripe.SessionDetails, error)
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error)
}

// CheckoutService 结算流程：创建会话、确认支付、处理 webhook
type CheckoutService struct {
	gateway      PaymentGateway
	materializer *OrderMaterializer
	cartRepo     repository.CartRepository
	userRepo     repository.UserRepository
	cfg          config.CheckoutConfig
	frontendURL  string
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(gateway PaymentGateway, materializer *OrderMaterializer, cartRepo repository.CartRepository, userRepo repository.UserRepository, cfg config.CheckoutConfig, frontendURL string) *CheckoutService {
	return &CheckoutService{
		gateway:      gateway,
		materializer: materializer,
		cartRepo:     cartRepo,
		userRepo:     userRepo,
		cfg:          cfg,
		frontendURL:  strings.TrimRight(strings.TrimSpace(frontendURL), "/"),
	}
}

// CheckoutSessionResult 创建会话结果
type CheckoutSessionResult struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// ConfirmResult 确认支付结果
type ConfirmResult struct {
	Success          bool   `json:"success"`
	OrderID          uint   `json:"order_id"`
	OrderNo          string `json:"order_no"`
	AlreadyProcessed bool   `json:"already_processed"`
}

func (s *CheckoutService) currency() string {
	currency := strings.ToUpper(strings.TrimSpace(s.cfg.Currency))
	if currency == "" {
		return "CAD"
	}
	return currency
}

// CreateSession 按当前购物车创建托管支付会话
func (s *CheckoutService) CreateSession(ctx context.Context, userID uint) (*CheckoutSessionResult, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	priced, err := priceCartItems(items)
	if err != nil {
		return nil, err
	}
	if len(priced.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	lineItems := make([]stripe.LineItem, 0, len(priced.Lines))
	for _, line := range priced.Lines {
		lineItems = append(lineItems, stripe.LineItem{
			Name:            line.Title,
			Description:     line.BrandName,
			ImageURL:        line.ImageURL,
			UnitAmountCents: line.UnitPriceCents,
			Quantity:        int64(line.Quantity),
		})
	}
	shipping := make([]stripe.ShippingOption, 0, len(s.cfg.ShippingOptions))
	for _, option := range s.cfg.ShippingOptions {
		shipping = append(shipping, stripe.ShippingOption{
			Name:        option.Name,
			AmountCents: option.AmountCents,
			MinDays:     option.MinDays,
			MaxDays:     option.MaxDays,
		})
	}

	ref, err := s.gateway.CreateSession(ctx, stripe.SessionRequest{
		LineItems:        lineItems,
		SuccessURL:       s.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.frontendURL + "/cart",
		CustomerEmail:    user.Email,
		Metadata:         map[string]string{constants.SessionMetadataUserID: strconv.FormatUint(uint64(userID), 10)},
		Currency:         s.currency(),
		ShippingOptions:  shipping,
		AllowedCountries: s.cfg.AllowedCountries,
	})
	if err != nil {
		logger.Warnw("checkout_session_create_failed", "user_id", userID, "error", err)
		return nil, mapGatewayError(err)
	}
	logger.Infow("checkout_session_created", "user_id", userID, "session_id", ref.ID, "lines", len(lineItems))
	return &CheckoutSessionResult{CheckoutURL: ref.URL, SessionID: ref.ID}, nil
}

// ConfirmSession 客户端轮询确认：校验归属与支付状态后落地订单
func (s *CheckoutService) ConfirmSession(ctx context.Context, userID uint, sessionID, locale string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	details, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	owner, ok := details.UserID()
	if !ok || owner != userID {
		logger.Warnw("checkout_session_owner_mismatch", "session_id", sessionID, "user_id", userID, "owner", owner)
		return nil, ErrSessionOwnershipMismatch
	}
	if details.PaymentStatus != constants.SessionPaymentStatusPaid {
		return nil, ErrPaymentNotCompleted
	}
	result, err := s.materializer.Commit(ctx, s.commitInput(userID, details, locale))
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{
		Success:          true,
		OrderID:          result.OrderID,
		OrderNo:          result.OrderNo,
		AlreadyProcessed: result.AlreadyProcessed,
	}, nil
}

// HandleWebhook 处理网关事件；仅 checkout.session.completed 且已支付时落地订单
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		logger.Warnw("checkout_webhook_rejected", "error", err)
		return mapGatewayError(err)
	}
	if event.Type != constants.StripeEventCheckoutSessionCompleted || event.Session == nil {
		logger.Debugw("checkout_webhook_ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}
	details := event.Session
	if details.PaymentStatus != constants.SessionPaymentStatusPaid {
		logger.Infow("checkout_webhook_unpaid", "event_id", event.ID, "session_id", details.ID, "payment_status", details.PaymentStatus)
		return nil
	}
	userID, ok := details.UserID()
	if !ok {
		logger.Warnw("checkout_webhook_missing_user", "event_id", event.ID, "session_id", details.ID)
		return nil
	}
	result, err := s.materializer.Commit(ctx, s.commitInput(userID, details, ""))
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			logger.Warnw("checkout_webhook_empty_cart", "event_id", event.ID, "session_id", details.ID, "user_id", userID)
			return nil
		}
		return err
	}
	logger.Infow("checkout_webhook_processed",
		"event_id", event.ID,
		"session_id", details.ID,
		"order_id", result.OrderID,
		"already_processed", result.AlreadyProcessed,
	)
	return nil
}

func (s *CheckoutService) commitInput(userID uint, details *stripe.SessionDetails, locale string) CommitInput {
	return CommitInput{
		UserID:        userID,
		SessionID:     details.ID,
		PaymentID:     details.PaymentID,
		ShippingCents: details.ShippingCents,
		ShippingName:  details.ShippingName,
		Currency:      details.Currency,
		Locale:        locale,
	}
}

func mapGatewayError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stripe.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, stripe.ErrSignatureInvalid), errors.Is(err, stripe.ErrPayloadInvalid):
		return fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
}
