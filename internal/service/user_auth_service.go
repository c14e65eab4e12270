package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo}
}

// UserJWTClaims 用户 JWT Claims
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	TokenType    string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair 访问令牌与刷新令牌
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

func resolveAccessExpire(cfg config.JWTConfig) time.Duration {
	if cfg.AccessExpireMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.AccessExpireMinutes) * time.Minute
}

func resolveRefreshExpire(cfg config.JWTConfig) time.Duration {
	if cfg.RefreshExpireHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(cfg.RefreshExpireHours) * time.Hour
}

// GenerateUserJWT 签发指定类型的令牌
func (s *UserAuthService) GenerateUserJWT(user *models.User, tokenType string) (string, time.Time, error) {
	ttl := resolveAccessExpire(s.cfg.UserJWT)
	if tokenType == constants.TokenTypeRefresh {
		ttl = resolveRefreshExpire(s.cfg.UserJWT)
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

// IssueTokens 签发访问令牌与刷新令牌
func (s *UserAuthService) IssueTokens(user *models.User) (*TokenPair, error) {
	access, expiresAt, err := s.GenerateUserJWT(user, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiresAt, err := s.GenerateUserJWT(user, constants.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Register 邮箱注册
func (s *UserAuthService) Register(input RegisterInput) (*models.User, *TokenPair, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	fullName := strings.TrimSpace(input.FullName)
	if len([]rune(fullName)) < 2 {
		return nil, nil, ErrFullNameTooShort
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, nil, err
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	user := &models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hashed),
		Role:         constants.UserRoleCustomer,
		IsActive:     true,
		LastLoginAt:  &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}
	tokens, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	logger.Infow("user_registered", "user_id", user.ID, "email", user.Email)
	return user, tokens, nil
}

// Login 邮箱密码登录
func (s *UserAuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.HasPassword() {
		return nil, nil, ErrOAuthAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserDisabled
	}
	return s.completeLogin(user)
}

func (s *UserAuthService) completeLogin(user *models.User) (*models.User, *TokenPair, error) {
	tokens, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, tokens, nil
}

// Refresh 使用刷新令牌换取新的访问令牌
func (s *UserAuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.ParseUserJWT(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, err
	}
	if claims.TokenType != constants.TokenTypeRefresh {
		return nil, ErrTokenInvalid
	}
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	access, expiresAt, err := s.GenerateUserJWT(user, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, ExpiresAt: expiresAt}, nil
}

// Logout 提升 token 版本，使已签发令牌全部失效
func (s *UserAuthService) Logout(userID uint) error {
	if err := s.userRepo.BumpTokenVersion(userID); err != nil {
		return err
	}
	if err := cache.DelUserAuthState(context.Background(), userID); err != nil {
		logger.Warnw("user_auth_state_delete_failed", "user_id", userID, "error", err)
	}
	return nil
}

// GetUserByID 获取用户
func (s *UserAuthService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ResolveAuthState 读取鉴权快照，缓存未命中时回源数据库并回写
func (s *UserAuthService) ResolveAuthState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	state, hit, err := cache.GetUserAuthState(ctx, userID)
	if err != nil {
		logger.Warnw("user_auth_state_get_failed", "user_id", userID, "error", err)
	}
	if hit && state != nil {
		return state, nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	state = cache.BuildUserAuthState(user)
	_ = cache.SetUserAuthState(ctx, state)
	return state, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 规范化邮箱
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}
