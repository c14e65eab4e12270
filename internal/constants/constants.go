package constants

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// OAuth 提供方常量
const (
	OAuthProviderGoogle = "google"
	OAuthProviderGitHub = "github"
)

// 支付常量
const (
	PaymentProviderStripe  = "stripe"
	PaymentStatusSucceeded = "succeeded"
)

// 网关会话支付状态
const (
	SessionPaymentStatusPaid   = "paid"
	SessionPaymentStatusUnpaid = "unpaid"
)

// Stripe 事件类型
const (
	StripeEventCheckoutSessionCompleted = "checkout.session.completed"
)

// 会话元数据键
const (
	SessionMetadataUserID = "user_id"
)

// JWT Token 类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// 队列名称
const (
	QueueDefault = "default"
	QueueMail    = "mail"
)

// 异步任务类型
const (
	TaskOrderConfirmationEmail = "order:confirmation_email"
	TaskOrderCancelledEmail    = "order:cancelled_email"
	TaskPasswordResetEmail     = "auth:password_reset_email"
	TaskPasswordChangedEmail   = "auth:password_changed_email"
)

// 通知模板类型
const (
	NotifyKindOrderConfirmation = "order_confirmation"
	NotifyKindOrderCancelled    = "order_cancelled"
	NotifyKindPasswordReset     = "password_reset"
	NotifyKindPasswordChanged   = "password_changed"
)

// 验证码场景
const (
	CaptchaSceneRegister       = "register"
	CaptchaSceneForgotPassword = "forgot_password"
)

// 商品排序方式
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
)

// 登录日志常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogSourcePassword = "password"
	LoginLogSourceOAuth    = "oauth"

	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonUserDisabled       = "user_disabled"
	LoginLogFailReasonOAuthAccount       = "oauth_account"
	LoginLogFailReasonInternalError      = "internal_error"
)

// 权限审计动作
const (
	AuthzAuditActionAssignRoles = "assign_roles"
)
