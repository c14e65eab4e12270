package provider

import (
	"fmt"
	"time"

	"github.com/mdsrtech/internal/authz"
	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/payment/stripe"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/repository"
	"github.com/mdsrtech/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo          repository.UserRepository
	ProductRepo       repository.ProductRepository
	CategoryRepo      repository.CategoryRepository
	BrandRepo         repository.BrandRepository
	CartRepo          repository.CartRepository
	WishlistRepo      repository.WishlistRepository
	OrderRepo         repository.OrderRepository
	PaymentRepo       repository.PaymentRepository
	PasswordResetRepo repository.PasswordResetRepository
	UserLoginLogRepo  repository.UserLoginLogRepository
	AuthzAuditLogRepo repository.AuthzAuditLogRepository

	// Services
	AuthzService         *authz.Service
	UserAuthService      *service.UserAuthService
	OAuthService         *service.OAuthService
	PasswordResetService *service.PasswordResetService
	EmailService         *service.EmailService
	NotificationService  *service.NotificationService
	CaptchaService       *service.CaptchaService
	CatalogService       *service.CatalogService
	CartService          *service.CartService
	WishlistService      *service.WishlistService
	OrderMaterializer    *service.OrderMaterializer
	OrderService         *service.OrderService
	CheckoutService      *service.CheckoutService
	AdminService         *service.AdminService
	UserLoginLogService  *service.UserLoginLogService
	PaymentGateway       *stripe.Gateway
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithDB(cfg, models.DB)
}

// NewContainerWithDB 使用指定数据库初始化容器（测试复用）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，禁用时返回不可用的客户端，通知走后台协程
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.BrandRepo = repository.NewBrandRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.PasswordResetRepo = repository.NewPasswordResetRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	cfg := c.Config

	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := service.BootstrapAuthz(c.AuthzService, c.UserRepo); err != nil {
		logger.Errorw("provider_bootstrap_authz_failed", "error", err)
		return err
	}

	pricing, err := service.NewPriceCalculator(cfg.Checkout.TaxRate)
	if err != nil {
		logger.Errorw("provider_init_pricing_failed", "tax_rate", cfg.Checkout.TaxRate, "error", err)
		return err
	}

	c.PaymentGateway = stripe.New(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		APIURL:        cfg.Stripe.APIURL,
		Timeout:       time.Duration(cfg.Stripe.TimeoutSeconds) * time.Second,
		Breaker: stripe.BreakerSettings{
			MaxRequests:         cfg.Stripe.Breaker.MaxRequests,
			Interval:            time.Duration(cfg.Stripe.Breaker.IntervalSeconds) * time.Second,
			Timeout:             time.Duration(cfg.Stripe.Breaker.TimeoutSeconds) * time.Second,
			ConsecutiveFailures: cfg.Stripe.Breaker.ConsecutiveFailures,
		},
	})
	if !c.PaymentGateway.Configured() {
		logger.Warnw("provider_stripe_not_configured")
	}

	c.EmailService = service.NewEmailService(&cfg.Email)
	c.NotificationService = service.NewNotificationService(c.QueueClient, c.EmailService)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo)
	c.OAuthService = service.NewOAuthService(cfg.OAuth, c.UserAuthService, c.UserRepo)
	c.PasswordResetService = service.NewPasswordResetService(c.PasswordResetRepo, c.UserRepo, c.NotificationService, cfg.Security.PasswordPolicy, cfg.Server.FrontendURL)
	c.UserLoginLogService = service.NewUserLoginLogService(c.UserLoginLogRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.CategoryRepo, c.BrandRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, cfg.Checkout.Currency)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.OrderMaterializer = service.NewOrderMaterializer(service.OrderMaterializerOptions{
		OrderRepo:   c.OrderRepo,
		PaymentRepo: c.PaymentRepo,
		CartRepo:    c.CartRepo,
		UserRepo:    c.UserRepo,
		Pricing:     pricing,
		Notifier:    c.NotificationService,
		Currency:    cfg.Checkout.Currency,
	})
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PaymentRepo, c.UserRepo, c.NotificationService)
	c.CheckoutService = service.NewCheckoutService(c.PaymentGateway, c.OrderMaterializer, c.CartRepo, c.UserRepo, cfg.Checkout, cfg.Server.FrontendURL)
	c.AdminService = service.NewAdminService(c.ProductRepo, c.UserRepo, c.AuthzAuditLogRepo, c.AuthzService, c.CatalogService)
	return nil
}
