package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type resetFixture struct {
	auth      *UserAuthService
	reset     *PasswordResetService
	resetRepo *repository.GormPasswordResetRepository
	userRepo  *repository.GormUserRepository
	mailer    *recordingMailer
}

func newResetFixture(t *testing.T, name string) *resetFixture {
	t.Helper()
	db := openServiceTestDB(t, name)
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "unit-test-secret"
	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	mailer := &recordingMailer{}
	return &resetFixture{
		auth:      NewUserAuthService(cfg, userRepo),
		reset:     NewPasswordResetService(resetRepo, userRepo, newSyncNotifier(t, mailer), cfg.Security.PasswordPolicy, "https://shop.test/"),
		resetRepo: resetRepo,
		userRepo:  userRepo,
		mailer:    mailer,
	}
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	const marker = "https://shop.test/auth/reset-password?token="
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("reset link missing in body: %q", body)
	}
	rest := body[idx+len(marker):]
	if end := strings.IndexAny(rest, " \n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestPasswordResetFlow(t *testing.T) {
	f := newResetFixture(t, "reset_flow")
	user, tokens, err := f.auth.Register(RegisterInput{Email: "eve@example.com", FullName: "Eve", Password: "password1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := f.reset.RequestReset(t.Context(), "eve@example.com", "en-US"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if err := f.reset.RequestReset(t.Context(), "EVE@example.com", "en-US"); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	sent := f.mailer.Sent()
	if len(sent) != 2 {
		t.Fatalf("want 2 reset emails, got %d", len(sent))
	}
	oldToken := tokenFromLink(t, sent[0].Body)
	newToken := tokenFromLink(t, sent[1].Body)

	// 新请求会作废旧令牌
	if _, err := f.reset.VerifyToken(oldToken); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("old token want ErrResetTokenInvalid, got %v", err)
	}
	email, err := f.reset.VerifyToken(newToken)
	if err != nil || email != "eve@example.com" {
		t.Fatalf("verify token got email=%q err=%v", email, err)
	}

	if err := f.reset.ResetPassword(t.Context(), newToken, "short", "en-US"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("want ErrPasswordTooShort, got %v", err)
	}
	if err := f.reset.ResetPassword(t.Context(), newToken, "new-password9", "en-US"); err != nil {
		t.Fatalf("reset password failed: %v", err)
	}

	reloaded, err := f.userRepo.GetByID(user.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(reloaded.PasswordHash), []byte("new-password9")); err != nil {
		t.Fatalf("password not updated: %v", err)
	}
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("token version want %d, got %d", user.TokenVersion+1, reloaded.TokenVersion)
	}
	if _, err := f.auth.Refresh(tokens.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old refresh token want ErrTokenRevoked, got %v", err)
	}
	if _, err := f.reset.VerifyToken(newToken); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("used token want ErrResetTokenInvalid, got %v", err)
	}

	sent = f.mailer.Sent()
	if len(sent) != 3 || !strings.Contains(sent[2].Subject, "Password Has Been Changed") {
		t.Fatalf("expected password changed email, got %+v", sent)
	}
}

func TestPasswordResetRequestErrors(t *testing.T) {
	f := newResetFixture(t, "reset_errors")
	if err := f.userRepo.Create(&models.User{Email: "oauth@example.com", FullName: "OAuth", Role: "customer", IsActive: true, OAuthProvider: "github", OAuthID: "7"}); err != nil {
		t.Fatalf("create oauth user failed: %v", err)
	}

	if err := f.reset.RequestReset(t.Context(), "missing@example.com", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if err := f.reset.RequestReset(t.Context(), "oauth@example.com", ""); !errors.Is(err, ErrOAuthAccount) {
		t.Fatalf("want ErrOAuthAccount, got %v", err)
	}
	if err := f.reset.RequestReset(t.Context(), "bad", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}
	if len(f.mailer.Sent()) != 0 {
		t.Fatalf("no email expected")
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newResetFixture(t, "reset_expire")
	if _, _, err := f.auth.Register(RegisterInput{Email: "finn@example.com", FullName: "Finn", Password: "password1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := f.reset.RequestReset(t.Context(), "finn@example.com", "fr-CA"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	token := tokenFromLink(t, f.mailer.Sent()[0].Body)

	f.reset.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := f.reset.VerifyToken(token); !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("want ErrResetTokenExpired, got %v", err)
	}
	if err := f.reset.ResetPassword(t.Context(), token, "new-password9", ""); !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("reset with expired token want ErrResetTokenExpired, got %v", err)
	}
}
