package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/config"
	adminhandlers "github.com/mdsrtech/internal/http/handlers/admin"
	publichandlers "github.com/mdsrtech/internal/http/handlers/public"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/i18n"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/provider"

	"github.com/gin-gonic/gin"
)

func buildRateLimitRule(prefix, name string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:%s", prefix, name),
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
	}
}

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mdsr"
	}
	redisClient := cache.Client()
	limits := cfg.Security.RateLimits
	registerLimit := RateLimitMiddleware(redisClient, buildRateLimitRule(redisPrefix, "register", limits.Register), KeyByIP)
	loginLimit := RateLimitMiddleware(redisClient, buildRateLimitRule(redisPrefix, "login", limits.Login), KeyByIPAndJSONField("email"))
	forgotLimit := RateLimitMiddleware(redisClient, buildRateLimitRule(redisPrefix, "forgot_password", limits.ForgotPassword), KeyByIP)
	resetLimit := RateLimitMiddleware(redisClient, buildRateLimitRule(redisPrefix, "reset_password", limits.ResetPassword), KeyByIP)

	userAuth := UserJWTAuthMiddleware(c.UserAuthService, c.UserAuthService)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// 商品浏览
		api.GET("/products", publicHandler.ListProducts)
		api.GET("/products/:id", publicHandler.GetProduct)
		api.GET("/products/slug/:slug", publicHandler.GetProductBySlug)
		api.GET("/categories", publicHandler.ListCategories)
		api.GET("/categories/:slug/products", publicHandler.ListCategoryProducts)
		api.GET("/brands", publicHandler.ListBrands)
		api.GET("/search", publicHandler.Search)
		api.GET("/captcha", publicHandler.GetImageCaptcha)

		// 用户认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", registerLimit, publicHandler.UserRegister)
			auth.POST("/login", loginLimit, publicHandler.UserLogin)
			auth.POST("/refresh", publicHandler.RefreshToken)
			auth.GET("/me", userAuth, publicHandler.GetMe)
			auth.POST("/logout", userAuth, publicHandler.UserLogout)
			auth.GET("/admin/verify", userAuth, RequireAdminRole(), publicHandler.AdminVerify)
			auth.POST("/forgot-password", forgotLimit, publicHandler.ForgotPassword)
			auth.POST("/verify-reset-token", publicHandler.VerifyResetToken)
			auth.POST("/reset-password", resetLimit, publicHandler.ResetPassword)

			auth.GET("/google", publicHandler.OAuthRedirect)
			auth.GET("/google/callback", publicHandler.OAuthCallbackRedirect)
			auth.POST("/google/callback", publicHandler.OAuthCallback)
			auth.GET("/github", publicHandler.OAuthRedirect)
			auth.GET("/github/callback", publicHandler.OAuthCallbackRedirect)
			auth.POST("/github/callback", publicHandler.OAuthCallback)
		}

		// 网关回调（签名校验，无需登录）
		api.POST("/checkout/webhook", publicHandler.StripeWebhook)

		// 用户接口（需鉴权）
		user := api.Group("")
		user.Use(userAuth)
		{
			user.GET("/cart", publicHandler.GetCart)
			user.GET("/cart/count", publicHandler.GetCartCount)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.DeleteCartItem)

			user.GET("/wishlist", publicHandler.ListWishlist)
			user.GET("/wishlist/ids", publicHandler.ListWishlistIDs)
			user.POST("/wishlist/toggle", publicHandler.ToggleWishlist)

			user.POST("/checkout/create-session", publicHandler.CreateCheckoutSession)
			user.GET("/checkout/session/:session_id", publicHandler.ConfirmCheckoutSession)

			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.DELETE("/orders/:id", publicHandler.CancelOrder)
		}

		// 管理端（用户 JWT + RBAC）
		admin := api.Group("/admin")
		admin.Use(userAuth, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders", adminHandler.GetAdminOrders)
			admin.GET("/payments", adminHandler.GetAdminPayments)
			admin.GET("/login-logs", adminHandler.GetUserLoginLogs)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.GET("/roles", adminHandler.ListRoles)
			admin.GET("/users/:id/roles", adminHandler.GetUserRoles)
			admin.PUT("/users/:id/roles", adminHandler.SetUserRoles)
			admin.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
		}
	}

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			response.NotFound(ctx, i18n.T(i18n.ResolveLocale(ctx), "error.not_found"))
			return
		}
		ctx.Status(http.StatusNotFound)
	})

	return r
}
