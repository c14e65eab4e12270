package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdsrtech/internal/logger"

	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

var (
	ErrConfigInvalid      = errors.New("stripe config invalid")
	ErrGatewayUnavailable = errors.New("stripe gateway unavailable")
	ErrSessionNotFound    = errors.New("stripe session not found")
	ErrSignatureInvalid   = errors.New("stripe signature invalid")
	ErrPayloadInvalid     = errors.New("stripe payload invalid")
)

const (
	defaultTimeout = 15 * time.Second

	paymentMethodCard = "card"
	deliveryUnitDay   = "business_day"
	shippingFixed     = "fixed_amount"
)

// SessionAPI Checkout Session 接口（stripe-go session.Client 的子集）
type SessionAPI interface {
	New(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
	Get(id string, params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

// Config 网关配置
type Config struct {
	SecretKey     string
	WebhookSecret string
	APIURL        string
	Timeout       time.Duration
	Breaker       BreakerSettings
	// Sessions 非空时直接使用（测试注入）
	Sessions SessionAPI
}

// LineItem 会话行项目
type LineItem struct {
	Name            string
	Description     string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int64
}

// ShippingOption 配送方式
type ShippingOption struct {
	Name        string
	AmountCents int64
	MinDays     int64
	MaxDays     int64
}

// SessionRequest 创建会话输入
type SessionRequest struct {
	LineItems        []LineItem
	SuccessURL       string
	CancelURL        string
	CustomerEmail    string
	Metadata         map[string]string
	Currency         string
	ShippingOptions  []ShippingOption
	AllowedCountries []string
}

// SessionRef 创建会话结果
type SessionRef struct {
	ID  string
	URL string
}

// SessionDetails 会话详情
type SessionDetails struct {
	ID            string
	PaymentStatus string
	PaymentID     string
	ShippingCents int64
	ShippingName  string
	Metadata      map[string]string
	CustomerEmail string
	AmountTotal   int64
	Currency      string
}

// UserID 从元数据解析会话所属用户
func (d *SessionDetails) UserID() (uint, bool) {
	if d == nil || d.Metadata == nil {
		return 0, false
	}
	raw := strings.TrimSpace(d.Metadata["user_id"])
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Gateway Stripe Checkout 适配器
type Gateway struct {
	sessions      SessionAPI
	webhookSecret string
	breaker       *sessionBreaker
}

// New 创建网关；未配置密钥时返回的网关在调用时报 ErrConfigInvalid
func New(cfg Config) *Gateway {
	sessions := cfg.Sessions
	if sessions == nil && strings.TrimSpace(cfg.SecretKey) != "" {
		sc := client.New(strings.TrimSpace(cfg.SecretKey), buildBackends(cfg))
		sessions = sc.CheckoutSessions
	}
	return &Gateway{
		sessions:      sessions,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		breaker:       newSessionBreaker(cfg.Breaker),
	}
}

func buildBackends(cfg Config) *stripeapi.Backends {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backendCfg := &stripeapi.BackendConfig{
		HTTPClient:    &http.Client{Timeout: timeout},
		LeveledLogger: &stripeapi.LeveledLogger{Level: stripeapi.LevelWarn},
	}
	if apiURL := strings.TrimSpace(cfg.APIURL); apiURL != "" {
		backendCfg.URL = stripeapi.String(apiURL)
	}
	return &stripeapi.Backends{
		API:     stripeapi.GetBackendWithConfig(stripeapi.APIBackend, backendCfg),
		Connect: stripeapi.GetBackendWithConfig(stripeapi.ConnectBackend, backendCfg),
		Uploads: stripeapi.GetBackendWithConfig(stripeapi.UploadsBackend, backendCfg),
	}
}

// Configured 是否已配置密钥
func (g *Gateway) Configured() bool {
	return g != nil && g.sessions != nil
}

// CreateSession 创建托管支付会话
func (g *Gateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionRef, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("%w: secret key is empty", ErrConfigInvalid)
	}
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("%w: line items are empty", ErrConfigInvalid)
	}
	params := buildSessionParams(req)
	params.Context = ctx

	session, err := g.breaker.execute(func() (*stripeapi.CheckoutSession, error) {
		return g.sessions.New(params)
	})
	if err != nil {
		return nil, classifyError("create_session", err)
	}
	return &SessionRef{ID: session.ID, URL: session.URL}, nil
}

// RetrieveSession 查询会话（展开 payment_intent）
func (g *Gateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionDetails, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("%w: secret key is empty", ErrConfigInvalid)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	session, err := g.breaker.execute(func() (*stripeapi.CheckoutSession, error) {
		return g.sessions.Get(sessionID, params)
	})
	if err != nil {
		return nil, classifyError("retrieve_session", err)
	}
	return toSessionDetails(session), nil
}

func buildSessionParams(req SessionRequest) *stripeapi.CheckoutSessionParams {
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{paymentMethodCard}),
		SuccessURL:         stripeapi.String(req.SuccessURL),
		CancelURL:          stripeapi.String(req.CancelURL),
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripeapi.String(email)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripeapi.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripeapi.StringSlice(req.AllowedCountries),
		}
	}

	lineItems := make([]*stripeapi.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		product := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripeapi.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripeapi.String(item.Description)
		}
		if item.ImageURL != "" {
			product.Images = stripeapi.StringSlice([]string{item.ImageURL})
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		lineItems = append(lineItems, &stripeapi.CheckoutSessionLineItemParams{
			Quantity: stripeapi.Int64(quantity),
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String(currency),
				UnitAmount:  stripeapi.Int64(item.UnitAmountCents),
				ProductData: product,
			},
		})
	}
	params.LineItems = lineItems

	for _, option := range req.ShippingOptions {
		params.ShippingOptions = append(params.ShippingOptions, &stripeapi.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripeapi.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripeapi.String(shippingFixed),
				DisplayName: stripeapi.String(option.Name),
				FixedAmount: &stripeapi.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripeapi.Int64(option.AmountCents),
					Currency: stripeapi.String(currency),
				},
				DeliveryEstimate: &stripeapi.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripeapi.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripeapi.String(deliveryUnitDay),
						Value: stripeapi.Int64(option.MinDays),
					},
					Maximum: &stripeapi.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripeapi.String(deliveryUnitDay),
						Value: stripeapi.Int64(option.MaxDays),
					},
				},
			},
		})
	}
	return params
}

func toSessionDetails(session *stripeapi.CheckoutSession) *SessionDetails {
	if session == nil {
		return nil
	}
	details := &SessionDetails{
		ID:            session.ID,
		PaymentStatus: string(session.PaymentStatus),
		Metadata:      map[string]string{},
		CustomerEmail: session.CustomerEmail,
		AmountTotal:   session.AmountTotal,
		Currency:      strings.ToUpper(string(session.Currency)),
	}
	for k, v := range session.Metadata {
		details.Metadata[k] = v
	}
	if session.PaymentIntent != nil {
		details.PaymentID = session.PaymentIntent.ID
	}
	if details.CustomerEmail == "" && session.CustomerDetails != nil {
		details.CustomerEmail = session.CustomerDetails.Email
	}
	if session.ShippingCost != nil {
		details.ShippingCents = session.ShippingCost.AmountTotal
		if session.ShippingCost.ShippingRate != nil {
			details.ShippingName = session.ShippingCost.ShippingRate.DisplayName
		}
	}
	return details
}

// classifyError 将 SDK 错误归类：熔断或传输/服务端错误视为网关不可用
func classifyError(op string, err error) error {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripeapi.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, stripeErr.Msg)
		}
		if stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError && stripeErr.HTTPStatusCode != http.StatusTooManyRequests {
			logger.Warnw("stripe_request_rejected", "op", op, "status", stripeErr.HTTPStatusCode, "code", stripeErr.Code, "error", stripeErr.Msg)
			return fmt.Errorf("%w: %s", ErrConfigInvalid, stripeErr.Msg)
		}
	}
	logger.Warnw("stripe_gateway_unavailable", "op", op, "error", err)
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}
