package public

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/mdsrtech/internal/constants"
	handlershared "github.com/mdsrtech/internal/http/handlers/shared"
	"github.com/mdsrtech/internal/http/response"
	"github.com/mdsrtech/internal/i18n"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/service"

	"github.com/gin-gonic/gin"
)

// UserView 用户公开信息
type UserView struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	OAuthProvider string `json:"oauth_provider,omitempty"`
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          user.Role,
		OAuthProvider: user.OAuthProvider,
	}
}

func authPayload(user *models.User, tokens *service.TokenPair) gin.H {
	return gin.H{
		"user":               toUserView(user),
		"access_token":       tokens.AccessToken,
		"refresh_token":      tokens.RefreshToken,
		"expires_at":         tokens.ExpiresAt,
		"refresh_expires_at": tokens.RefreshExpiresAt,
	}
}

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email          string                              `json:"email" binding:"required"`
	FullName       string                              `json:"full_name" binding:"required"`
	Password       string                              `json:"password" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneRegister, req.CaptchaPayload) {
		return
	}

	user, tokens, err := h.UserAuthService.Register(service.RegisterInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		if respondPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "error.auth_failed")
		return
	}
	response.Success(c, authPayload(user, tokens))
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserLogin 邮箱密码登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, tokens, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		h.recordLogin(c, 0, req.Email, constants.LoginLogSourcePassword, loginFailReason(err))
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "error.auth_failed")
		return
	}
	h.recordLogin(c, user.ID, user.Email, constants.LoginLogSourcePassword, "")
	response.Success(c, authPayload(user, tokens))
}

func loginFailReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return constants.LoginLogFailReasonInvalidCredentials
	case errors.Is(err, service.ErrUserDisabled):
		return constants.LoginLogFailReasonUserDisabled
	case errors.Is(err, service.ErrOAuthAccount):
		return constants.LoginLogFailReasonOAuthAccount
	default:
		return constants.LoginLogFailReasonInternalError
	}
}

// recordLogin 登录日志写入失败不影响登录结果
func (h *Handler) recordLogin(c *gin.Context, userID uint, email, source, failReason string) {
	status := constants.LoginLogStatusSuccess
	if failReason != "" {
		status = constants.LoginLogStatusFailed
	}
	if err := h.UserLoginLogService.Record(service.RecordUserLoginInput{
		UserID:     userID,
		Email:      email,
		Status:     status,
		FailReason: failReason,
		ClientIP:   c.ClientIP(),
		Source:     source,
		RequestID:  requestID(c),
	}); err != nil {
		requestLog(c).Warnw("user_login_log_record_failed", "user_id", userID, "error", err)
	}
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 换取新的访问令牌
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	tokens, err := h.UserAuthService.Refresh(req.RefreshToken)
	if err != nil {
		respondWithMappedError(c, err, tokenErrorRules, response.CodeUnauthorized, "error.token_invalid")
		return
	}
	response.Success(c, gin.H{
		"access_token": tokens.AccessToken,
		"expires_at":   tokens.ExpiresAt,
	})
}

// GetMe 当前用户
func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondWithMappedError(c, err, tokenErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, toUserView(user))
}

// UserLogout 注销，已签发令牌全部失效
func (h *Handler) UserLogout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.UserAuthService.Logout(uid); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	locale := i18n.ResolveLocale(c)
	response.Success(c, gin.H{"message": i18n.T(locale, "message.logout_success")})
}

// AdminVerify 校验当前用户具备管理员角色，由路由中间件完成鉴权
func (h *Handler) AdminVerify(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondWithMappedError(c, err, tokenErrorRules, response.CodeInternal, "error.internal")
		return
	}
	if user.Role != constants.UserRoleAdmin {
		respondError(c, response.CodeForbidden, "error.admin_required", nil)
		return
	}
	response.Success(c, gin.H{"is_admin": true, "user": toUserView(user)})
}

// OAuthRedirect 跳转到第三方授权页
func (h *Handler) OAuthRedirect(c *gin.Context) {
	provider := oauthProvider(c)
	authURL, err := h.OAuthService.AuthURL(c.Request.Context(), provider)
	if err != nil {
		respondWithMappedError(c, err, oauthErrorRules, response.CodeInternal, "error.oauth_exchange_failed")
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// OAuthCallbackRequest 前端回传授权码
type OAuthCallbackRequest struct {
	Code  string `json:"code" form:"code"`
	State string `json:"state" form:"state"`
}

// OAuthCallback POST 方式回调，返回 JSON 令牌
func (h *Handler) OAuthCallback(c *gin.Context) {
	var req OAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	provider := oauthProvider(c)
	user, tokens, err := h.OAuthService.Callback(c.Request.Context(), service.OAuthCallbackInput{
		Provider: provider,
		Code:     req.Code,
		State:    req.State,
	})
	if err != nil {
		h.recordLogin(c, 0, "", constants.LoginLogSourceOAuth, constants.LoginLogFailReasonInternalError)
		respondWithMappedError(c, err, oauthErrorRules, response.CodeInternal, "error.oauth_exchange_failed")
		return
	}
	h.recordLogin(c, user.ID, user.Email, constants.LoginLogSourceOAuth, "")
	response.Success(c, authPayload(user, tokens))
}

// OAuthCallbackRedirect GET 方式回调，完成后带令牌跳回前端
func (h *Handler) OAuthCallbackRedirect(c *gin.Context) {
	provider := oauthProvider(c)
	target := strings.TrimRight(h.Config.Server.FrontendURL, "/") + "/auth/callback"
	if errParam := strings.TrimSpace(c.Query("error")); errParam != "" {
		c.Redirect(http.StatusFound, target+"?"+url.Values{"error": {errParam}}.Encode())
		return
	}

	user, tokens, err := h.OAuthService.Callback(c.Request.Context(), service.OAuthCallbackInput{
		Provider:     provider,
		Code:         c.Query("code"),
		State:        c.Query("state"),
		RequireState: true,
	})
	if err != nil {
		requestLog(c).Warnw("oauth_callback_failed", "provider", provider, "error", err)
		h.recordLogin(c, 0, "", constants.LoginLogSourceOAuth, constants.LoginLogFailReasonInternalError)
		c.Redirect(http.StatusFound, target+"?"+url.Values{"error": {"oauth_failed"}}.Encode())
		return
	}
	h.recordLogin(c, user.ID, user.Email, constants.LoginLogSourceOAuth, "")
	query := url.Values{
		"access_token":  {tokens.AccessToken},
		"refresh_token": {tokens.RefreshToken},
		"provider":      {provider},
	}
	c.Redirect(http.StatusFound, target+"?"+query.Encode())
}

// oauthProvider 路由形如 /auth/google 与 /auth/google/callback
func oauthProvider(c *gin.Context) string {
	if provider := strings.TrimSpace(c.Param("provider")); provider != "" {
		return strings.ToLower(provider)
	}
	path := strings.TrimSuffix(c.FullPath(), "/callback")
	return strings.ToLower(path[strings.LastIndex(path, "/")+1:])
}

// ForgotPasswordRequest 忘记密码请求
type ForgotPasswordRequest struct {
	Email          string                              `json:"email" binding:"required"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// ForgotPassword 发送重置邮件
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneForgotPassword, req.CaptchaPayload) {
		return
	}
	locale := i18n.ResolveLocale(c)
	if err := h.PasswordResetService.RequestReset(c.Request.Context(), req.Email, locale); err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(passwordResetErrorRules, loginErrorRules), response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"message": i18n.T(locale, "message.password_reset_sent")})
}

// ResetTokenRequest 重置令牌校验请求
type ResetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyResetToken 校验重置令牌
func (h *Handler) VerifyResetToken(c *gin.Context) {
	var req ResetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	email, err := h.PasswordResetService.VerifyToken(req.Token)
	if err != nil {
		respondWithMappedError(c, err, passwordResetErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"valid": true, "email": email})
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPassword 使用令牌设置新密码
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	locale := i18n.ResolveLocale(c)
	if err := h.PasswordResetService.ResetPassword(c.Request.Context(), req.Token, req.Password, locale); err != nil {
		if respondPasswordPolicyError(c, err) {
			return
		}
		respondWithMappedError(c, err, passwordResetErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"message": i18n.T(locale, "message.password_reset_done")})
}
