package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *recordingMailer) SendTextEmail(toEmail, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: toEmail, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) Sent() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

func newSyncNotifier(t *testing.T, mailer Mailer) *NotificationService {
	t.Helper()
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	notifier := NewNotificationService(queueClient, mailer)
	notifier.dispatch = func(fn func()) { fn() }
	return notifier
}

type checkoutFixture struct {
	db           *gorm.DB
	mailer       *recordingMailer
	cartRepo     *repository.GormCartRepository
	productRepo  *repository.GormProductRepository
	orderRepo    *repository.GormOrderRepository
	paymentRepo  *repository.GormPaymentRepository
	userRepo     *repository.GormUserRepository
	cart         *CartService
	materializer *OrderMaterializer
	orders       *OrderService
}

func newCheckoutFixture(t *testing.T, name string) *checkoutFixture {
	t.Helper()
	db := openServiceTestDB(t, name)
	mailer := &recordingMailer{}
	notifier := newSyncNotifier(t, mailer)
	pricing, err := NewPriceCalculator("0.13")
	if err != nil {
		t.Fatalf("create price calculator failed: %v", err)
	}
	f := &checkoutFixture{
		db:          db,
		mailer:      mailer,
		cartRepo:    repository.NewCartRepository(db),
		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		userRepo:    repository.NewUserRepository(db),
	}
	f.cart = NewCartService(f.cartRepo, f.productRepo, "CAD")
	f.materializer = NewOrderMaterializer(OrderMaterializerOptions{
		OrderRepo:   f.orderRepo,
		PaymentRepo: f.paymentRepo,
		CartRepo:    f.cartRepo,
		UserRepo:    f.userRepo,
		Pricing:     pricing,
		Notifier:    notifier,
		Currency:    "CAD",
	})
	f.orders = NewOrderService(f.orderRepo, f.paymentRepo, f.userRepo, notifier)
	return f
}

func (f *checkoutFixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, FullName: "Test Buyer", PasswordHash: "hash", Role: "customer", IsActive: true}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (f *checkoutFixture) createProduct(t *testing.T, slug string, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Title:      "Product " + slug,
		Slug:       slug,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
		Images: []models.ProductImage{
			{URL: "https://cdn.test/" + slug + ".png", IsPrimary: true},
		},
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *checkoutFixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}
