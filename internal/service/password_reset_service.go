package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/queue"
	"github.com/mdsrtech/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
)

// PasswordResetService 找回密码
type PasswordResetService struct {
	resetRepo   repository.PasswordResetRepository
	userRepo    repository.UserRepository
	notifier    *NotificationService
	policy      config.PasswordPolicyConfig
	frontendURL string
	now         func() time.Time
}

// NewPasswordResetService 创建找回密码服务
func NewPasswordResetService(resetRepo repository.PasswordResetRepository, userRepo repository.UserRepository, notifier *NotificationService, policy config.PasswordPolicyConfig, frontendURL string) *PasswordResetService {
	return &PasswordResetService{
		resetRepo:   resetRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		policy:      policy,
		frontendURL: strings.TrimRight(strings.TrimSpace(frontendURL), "/"),
		now:         time.Now,
	}
}

func randomURLToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RequestReset 作废旧令牌，生成 1 小时有效的新令牌并发送重置邮件
func (s *PasswordResetService) RequestReset(ctx context.Context, email, locale string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.HasPassword() {
		return ErrOAuthAccount
	}
	token, err := randomURLToken(resetTokenBytes)
	if err != nil {
		return err
	}
	err = s.resetRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.resetRepo.WithTx(tx)
		if err := repo.InvalidateOpenByUser(user.ID); err != nil {
			return err
		}
		return repo.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: s.now().Add(resetTokenTTL),
		})
	})
	if err != nil {
		return err
	}

	logger.Infow("password_reset_requested", "user_id", user.ID)
	s.notifier.Send(ctx, queue.NotificationPayload{
		Kind:          constants.NotifyKindPasswordReset,
		Recipient:     user.Email,
		RecipientName: user.FullName,
		Locale:        locale,
		Link:          s.frontendURL + "/auth/reset-password?token=" + token,
	})
	return nil
}

func (s *PasswordResetService) loadValidToken(token string) (*models.PasswordResetToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrResetTokenInvalid
	}
	record, err := s.resetRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if record == nil || record.User == nil {
		return nil, ErrResetTokenInvalid
	}
	if record.Expired(s.now()) {
		return nil, ErrResetTokenExpired
	}
	return record, nil
}

// VerifyToken 校验令牌，返回对应邮箱
func (s *PasswordResetService) VerifyToken(token string) (string, error) {
	record, err := s.loadValidToken(token)
	if err != nil {
		return "", err
	}
	return record.User.Email, nil
}

// ResetPassword 使用令牌设置新密码，并使旧登录态失效
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password, locale string) error {
	record, err := s.loadValidToken(token)
	if err != nil {
		return err
	}
	if err := validatePassword(s.policy, password); err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := record.User
	err = s.resetRepo.Transaction(func(tx *gorm.DB) error {
		user.PasswordHash = string(hashed)
		userRepo := s.userRepo.WithTx(tx)
		if err := userRepo.Update(user); err != nil {
			return err
		}
		if err := userRepo.BumpTokenVersion(user.ID); err != nil {
			return err
		}
		return s.resetRepo.WithTx(tx).MarkUsed(record.ID)
	})
	if err != nil {
		return err
	}
	if err := cache.DelUserAuthState(ctx, user.ID); err != nil {
		logger.Warnw("user_auth_state_delete_failed", "user_id", user.ID, "error", err)
	}

	logger.Infow("password_reset_completed", "user_id", user.ID)
	s.notifier.Send(ctx, queue.NotificationPayload{
		Kind:          constants.NotifyKindPasswordChanged,
		Recipient:     user.Email,
		RecipientName: user.FullName,
		Locale:        locale,
	})
	return nil
}
