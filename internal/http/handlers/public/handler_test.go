package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type publicTestEnv struct {
	db      *gorm.DB
	handler *Handler
}

func newPublicTestEnv(t *testing.T, name string, mutate func(cfg *config.Config)) *publicTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "handler-test-secret"
	cfg.Checkout.Currency = "cad"
	cfg.Server.FrontendURL = "http://localhost:3000"
	if mutate != nil {
		mutate(cfg)
	}
	container, err := provider.NewContainerWithDB(cfg, db)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	return &publicTestEnv{db: db, handler: New(container)}
}

// withUser 模拟鉴权中间件写入的用户 ID
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newPublicTestEnv(t, "public_register_login", nil)
	r := gin.New()
	r.POST("/auth/register", env.handler.UserRegister)
	r.POST("/auth/login", env.handler.UserLogin)

	w := doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email": "ann@example.com", "full_name": "Ann Lee", "password": "password1",
	})
	resp := decodeEnvelope(t, w)
	if resp.StatusCode != 0 {
		t.Fatalf("register failed: %+v", resp)
	}
	var registered struct {
		User        UserView `json:"user"`
		AccessToken string   `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Data, &registered); err != nil {
		t.Fatalf("decode register data failed: %v", err)
	}
	if registered.User.Email != "ann@example.com" || registered.AccessToken == "" {
		t.Fatalf("unexpected register payload: %+v", registered)
	}

	dup := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email": "ANN@example.com", "full_name": "Ann Two", "password": "password1",
	}))
	if dup.StatusCode != 409 {
		t.Fatalf("duplicate email want 409, got %+v", dup)
	}

	bad := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "ann@example.com", "password": "wrong-password",
	}))
	if bad.StatusCode != 401 {
		t.Fatalf("bad password want 401, got %+v", bad)
	}
	ok := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email": "ann@example.com", "password": "password1",
	}))
	if ok.StatusCode != 0 {
		t.Fatalf("login failed: %+v", ok)
	}

	var logs []models.UserLoginLog
	if err := env.db.Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load login logs failed: %v", err)
	}
	if len(logs) != 2 || logs[0].Status != "failed" || logs[1].Status != "success" {
		t.Fatalf("unexpected login logs: %+v", logs)
	}

	me := gin.New()
	me.GET("/auth/me", withUser(registered.User.ID), env.handler.GetMe)
	meResp := decodeEnvelope(t, doJSON(t, me, http.MethodGet, "/auth/me", nil))
	if meResp.StatusCode != 0 {
		t.Fatalf("me failed: %+v", meResp)
	}
}

func TestRegisterRejectsShortPasswordWithPolicyMessage(t *testing.T) {
	env := newPublicTestEnv(t, "public_register_policy", nil)
	r := gin.New()
	r.POST("/auth/register", env.handler.UserRegister)

	resp := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/auth/register", gin.H{
		"email": "bob@example.com", "full_name": "Bob", "password": "short",
	}))
	if resp.StatusCode != 400 || resp.Msg != "Password must be at least 8 characters long" {
		t.Fatalf("unexpected policy response: %+v", resp)
	}
}

func TestCartAddAndCount(t *testing.T) {
	env := newPublicTestEnv(t, "public_cart", nil)
	product := &models.Product{Title: "Mouse", Slug: "mouse", PriceCents: 2500, Stock: 3, IsActive: true}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/cart/items", env.handler.AddCartItem)
	r.GET("/cart/count", env.handler.GetCartCount)
	r.DELETE("/cart/items/:id", env.handler.DeleteCartItem)

	added := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": 2}))
	if added.StatusCode != 0 {
		t.Fatalf("add item failed: %+v", added)
	}
	tooMany := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": 2}))
	if tooMany.StatusCode != 400 {
		t.Fatalf("stock overflow want 400, got %+v", tooMany)
	}
	missing := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": 999, "quantity": 1}))
	if missing.StatusCode != 400 {
		t.Fatalf("unknown product want 400, got %+v", missing)
	}

	count := decodeEnvelope(t, doJSON(t, r, http.MethodGet, "/cart/count", nil))
	var payload struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(count.Data, &payload); err != nil {
		t.Fatalf("decode count failed: %v", err)
	}
	if payload.Count != 2 {
		t.Fatalf("cart count want 2, got %d", payload.Count)
	}

	notFound := decodeEnvelope(t, doJSON(t, r, http.MethodDelete, "/cart/items/12345", nil))
	if notFound.StatusCode != 404 {
		t.Fatalf("delete missing item want 404, got %+v", notFound)
	}
}

func TestWishlistToggle(t *testing.T) {
	env := newPublicTestEnv(t, "public_wishlist", nil)
	product := &models.Product{Title: "Headphones", Slug: "headphones", PriceCents: 9900, Stock: 1, IsActive: true}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	r := gin.New()
	r.Use(withUser(3))
	r.POST("/wishlist/toggle", env.handler.ToggleWishlist)

	for _, want := range []bool{true, false} {
		resp := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/wishlist/toggle", gin.H{"product_id": product.ID}))
		var payload struct {
			InWishlist bool `json:"in_wishlist"`
		}
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			t.Fatalf("decode toggle failed: %v", err)
		}
		if payload.InWishlist != want {
			t.Fatalf("in_wishlist want %v, got %v", want, payload.InWishlist)
		}
	}

	missing := decodeEnvelope(t, doJSON(t, r, http.MethodPost, "/wishlist/toggle", gin.H{"product_id": 404}))
	if missing.StatusCode != 404 {
		t.Fatalf("unknown product want 404, got %+v", missing)
	}
}

func TestStripeWebhookSignatureFailureReturnsHTTP400(t *testing.T) {
	env := newPublicTestEnv(t, "public_webhook_sig", func(cfg *config.Config) {
		cfg.Stripe.WebhookSecret = "whsec_unit_test"
	})
	r := gin.New()
	r.POST("/checkout/webhook", env.handler.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/checkout/webhook", bytes.NewBufferString(`{"id":"evt_1","type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad signature want HTTP 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestStripeWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	env := newPublicTestEnv(t, "public_webhook_ignored", nil)
	r := gin.New()
	r.POST("/checkout/webhook", env.handler.StripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/checkout/webhook", bytes.NewBufferString(`{"id":"evt_2","type":"customer.created"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ignored event want HTTP 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["received"] != true {
		t.Fatalf("unexpected ack body: %s", w.Body.String())
	}
}

func TestOrderEndpointsHideOtherUsersOrders(t *testing.T) {
	env := newPublicTestEnv(t, "public_orders", nil)
	payment := &models.Payment{UserID: 1, Provider: "stripe", ProviderPaymentID: "pi_handler_1", AmountCents: 1130, Currency: "cad", Status: "succeeded"}
	if err := env.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	order := &models.Order{OrderNo: "MDSR-TEST-1", UserID: 1, PaymentID: payment.ID, SubtotalCents: 1000, TaxCents: 130, TotalCents: 1130, Currency: "cad", PlacedAt: time.Now()}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	other := gin.New()
	other.Use(withUser(2))
	other.GET("/orders/:id", env.handler.GetOrder)
	other.DELETE("/orders/:id", env.handler.CancelOrder)
	path := fmt.Sprintf("/orders/%d", order.ID)
	if resp := decodeEnvelope(t, doJSON(t, other, http.MethodGet, path, nil)); resp.StatusCode != 404 {
		t.Fatalf("foreign order want 404, got %+v", resp)
	}
	if resp := decodeEnvelope(t, doJSON(t, other, http.MethodDelete, path, nil)); resp.StatusCode != 404 {
		t.Fatalf("foreign cancel want 404, got %+v", resp)
	}

	owner := gin.New()
	owner.Use(withUser(1))
	owner.DELETE("/orders/:id", env.handler.CancelOrder)
	if resp := decodeEnvelope(t, doJSON(t, owner, http.MethodDelete, path, nil)); resp.StatusCode != 0 {
		t.Fatalf("owner cancel failed: %+v", resp)
	}
	var remaining int64
	env.db.Model(&models.Order{}).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("order should be deleted, remaining=%d", remaining)
	}
}
