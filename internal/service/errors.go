package service

import "errors"

// 参数校验类错误
var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrWeakPassword        = errors.New("password does not satisfy policy")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrFullNameTooShort    = errors.New("full name too short")
	ErrCaptchaRequired     = errors.New("captcha required")
	ErrCaptchaInvalid      = errors.New("captcha invalid")
	ErrResetTokenInvalid   = errors.New("reset token invalid")
	ErrResetTokenExpired   = errors.New("reset token expired")
	ErrOAuthAccount        = errors.New("account uses oauth sign-in")
	ErrOAuthStateInvalid   = errors.New("oauth state invalid")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidProduct      = errors.New("invalid product")
)

// 认证与授权错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAdminRequired      = errors.New("admin role required")
	ErrOAuthNotConfigured = errors.New("oauth provider not configured")
)

// 资源不存在错误
var (
	ErrProductNotFound          = errors.New("product not found")
	ErrCategoryNotFound         = errors.New("category not found")
	ErrCartItemNotFound         = errors.New("cart item not found")
	ErrOrderNotFound            = errors.New("order not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrSessionNotFound          = errors.New("checkout session not found")
	ErrSessionOwnershipMismatch = errors.New("checkout session belongs to another user")
)

// 冲突错误
var (
	ErrEmailExists = errors.New("email already exists")
	ErrSlugExists  = errors.New("slug already exists")
)

// 外部服务错误（可重试）
var (
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrWebhookSignatureInvalid = errors.New("webhook signature invalid")
	ErrOAuthExchangeFailed     = errors.New("oauth exchange failed")
)

// 数据完整性错误，事务整体回滚
var (
	ErrIntegrity = errors.New("order integrity violated")
)

// 邮件服务错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
