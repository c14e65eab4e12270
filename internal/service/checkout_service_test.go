package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/payment/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	lastRequest stripe.SessionRequest
	createErr   error
	sessions    map[string]*stripe.SessionDetails
	event       *stripe.WebhookEvent
	webhookErr  error
}

func (g *stubGateway) CreateSession(ctx context.Context, req stripe.SessionRequest) (*stripe.SessionRef, error) {
	g.lastRequest = req
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &stripe.SessionRef{ID: "cs_new", URL: "https://checkout.test/cs_new"}, nil
}

func (g *stubGateway) RetrieveSession(ctx context.Context, sessionID string) (*stripe.SessionDetails, error) {
	details, ok := g.sessions[sessionID]
	if !ok {
		return nil, stripe.ErrSessionNotFound
	}
	return details, nil
}

func (g *stubGateway) ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.event, nil
}

func newCheckoutServiceForTest(t *testing.T, f *checkoutFixture, gateway *stubGateway) *CheckoutService {
	t.Helper()
	cfg := config.CheckoutConfig{
		Currency:         "CAD",
		TaxRate:          "0.13",
		AllowedCountries: []string{"CA", "US"},
		ShippingOptions: []config.ShippingOptionConfig{
			{Name: "Free Shipping", AmountCents: 0, MinDays: 5, MaxDays: 7},
			{Name: "Express Shipping", AmountCents: 1499, MinDays: 1, MaxDays: 3},
		},
	}
	return NewCheckoutService(gateway, f.materializer, f.cartRepo, f.userRepo, cfg, "http://shop.test/")
}

func paidSession(id, paymentID string, userID uint, shipping int64) *stripe.SessionDetails {
	return &stripe.SessionDetails{
		ID:            id,
		PaymentStatus: "paid",
		PaymentID:     paymentID,
		ShippingCents: shipping,
		ShippingName:  "Express Shipping",
		Metadata:      map[string]string{"user_id": strconv.FormatUint(uint64(userID), 10)},
		Currency:      "cad",
	}
}

func TestCheckoutCreateSessionBuildsRequest(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_create")
	user := f.createUser(t, "session@example.com")
	product := f.createProduct(t, "session-a", 1000, 5)
	_, err := f.cart.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	gateway := &stubGateway{}
	svc := newCheckoutServiceForTest(t, f, gateway)
	result, err := svc.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_new", result.SessionID)
	assert.Equal(t, "https://checkout.test/cs_new", result.CheckoutURL)

	req := gateway.lastRequest
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, int64(1000), req.LineItems[0].UnitAmountCents)
	assert.Equal(t, int64(2), req.LineItems[0].Quantity)
	assert.Equal(t, "http://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "http://shop.test/cart", req.CancelURL)
	assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), req.Metadata["user_id"])
	assert.Equal(t, "session@example.com", req.CustomerEmail)
	assert.Len(t, req.ShippingOptions, 2)
}

func TestCheckoutCreateSessionEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_create_empty")
	user := f.createUser(t, "empty-session@example.com")
	svc := newCheckoutServiceForTest(t, f, &stubGateway{})
	_, err := svc.CreateSession(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutCreateSessionGatewayUnavailable(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_create_unavailable")
	user := f.createUser(t, "down@example.com")
	product := f.createProduct(t, "down-a", 1000, 5)
	_, err := f.cart.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	svc := newCheckoutServiceForTest(t, f, &stubGateway{createErr: stripe.ErrGatewayUnavailable})
	_, err = svc.CreateSession(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestConfirmSessionCommitsOnce(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_confirm")
	user := f.createUser(t, "confirm@example.com")
	product := f.createProduct(t, "confirm-a", 1000, 5)
	_, err := f.cart.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	gateway := &stubGateway{sessions: map[string]*stripe.SessionDetails{
		"cs_paid": paidSession("cs_paid", "pi_paid", user.ID, 500),
	}}
	svc := newCheckoutServiceForTest(t, f, gateway)

	first, err := svc.ConfirmSession(context.Background(), user.ID, "cs_paid", "")
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.False(t, first.AlreadyProcessed)

	second, err := svc.ConfirmSession(context.Background(), user.ID, "cs_paid", "")
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.OrderID, second.OrderID)

	var order models.Order
	require.NoError(t, f.db.First(&order, first.OrderID).Error)
	assert.Equal(t, int64(2825), order.TotalCents)
	assert.Equal(t, "Express Shipping", order.ShippingName)
}

func TestConfirmSessionOwnershipMismatch(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_owner")
	owner := f.createUser(t, "session-owner@example.com")
	intruder := f.createUser(t, "intruder@example.com")
	product := f.createProduct(t, "owner-a", 1000, 5)
	_, err := f.cart.AddItem(intruder.ID, product.ID, 1)
	require.NoError(t, err)

	gateway := &stubGateway{sessions: map[string]*stripe.SessionDetails{
		"cs_owner": paidSession("cs_owner", "pi_owner", owner.ID, 0),
	}}
	svc := newCheckoutServiceForTest(t, f, gateway)
	_, err = svc.ConfirmSession(context.Background(), intruder.ID, "cs_owner", "")
	assert.ErrorIs(t, err, ErrSessionOwnershipMismatch)
	assert.Equal(t, int64(0), f.countRows(t, &models.Order{}))
	assert.Equal(t, int64(0), f.countRows(t, &models.Payment{}))
}

func TestConfirmSessionRequiresPaidStatus(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_unpaid")
	user := f.createUser(t, "unpaid@example.com")
	unpaid := paidSession("cs_unpaid", "", user.ID, 0)
	unpaid.PaymentStatus = "unpaid"
	svc := newCheckoutServiceForTest(t, f, &stubGateway{sessions: map[string]*stripe.SessionDetails{"cs_unpaid": unpaid}})

	_, err := svc.ConfirmSession(context.Background(), user.ID, "cs_unpaid", "")
	assert.ErrorIs(t, err, ErrPaymentNotCompleted)
	_, err = svc.ConfirmSession(context.Background(), user.ID, "cs_missing", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHandleWebhookCommitsCompletedSession(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_webhook")
	user := f.createUser(t, "hook@example.com")
	product := f.createProduct(t, "hook-a", 1000, 5)
	_, err := f.cart.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	gateway := &stubGateway{event: &stripe.WebhookEvent{
		ID:      "evt_1",
		Type:    "checkout.session.completed",
		Session: paidSession("cs_hook", "pi_hook", user.ID, 0),
	}}
	svc := newCheckoutServiceForTest(t, f, gateway)
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Equal(t, int64(1), f.countRows(t, &models.Order{}))

	gateway.event = &stripe.WebhookEvent{ID: "evt_2", Type: "payment_intent.created"}
	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newCheckoutFixture(t, "checkout_webhook_sig")
	svc := newCheckoutServiceForTest(t, f, &stubGateway{webhookErr: stripe.ErrSignatureInvalid})
	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.True(t, errors.Is(err, ErrWebhookSignatureInvalid))
}
