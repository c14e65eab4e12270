package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdsrtech/internal/cache"
	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/logger"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// OAuthProfile 第三方用户资料
type OAuthProfile struct {
	Provider string
	ID       string
	Email    string
	FullName string
}

// OAuthService Google / GitHub 登录
type OAuthService struct {
	cfg      config.OAuthConfig
	auth     *UserAuthService
	userRepo repository.UserRepository
	// 资料接口地址，测试中指向本地服务
	profileURLs map[string][]string
	endpoints   map[string]oauth2.Endpoint
}

// NewOAuthService 创建第三方登录服务
func NewOAuthService(cfg config.OAuthConfig, auth *UserAuthService, userRepo repository.UserRepository) *OAuthService {
	return &OAuthService{
		cfg:      cfg,
		auth:     auth,
		userRepo: userRepo,
		profileURLs: map[string][]string{
			constants.OAuthProviderGoogle: {googleUserInfoURL},
			constants.OAuthProviderGitHub: {githubUserURL, githubEmailsURL},
		},
		endpoints: map[string]oauth2.Endpoint{
			constants.OAuthProviderGoogle: google.Endpoint,
			constants.OAuthProviderGitHub: github.Endpoint,
		},
	}
}

func (s *OAuthService) oauthConfig(provider string) (*oauth2.Config, error) {
	var providerCfg config.OAuthProviderConfig
	var scopes []string
	switch provider {
	case constants.OAuthProviderGoogle:
		providerCfg = s.cfg.Google
		scopes = []string{"openid", "email", "profile"}
	case constants.OAuthProviderGitHub:
		providerCfg = s.cfg.GitHub
		scopes = []string{"user:email"}
	default:
		return nil, ErrOAuthNotConfigured
	}
	if !providerCfg.Enabled() {
		return nil, ErrOAuthNotConfigured
	}
	return &oauth2.Config{
		ClientID:     providerCfg.ClientID,
		ClientSecret: providerCfg.ClientSecret,
		RedirectURL:  providerCfg.RedirectURL,
		Endpoint:     s.endpoints[provider],
		Scopes:       scopes,
	}, nil
}

func (s *OAuthService) stateTTL() time.Duration {
	if s.cfg.StateTTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.cfg.StateTTLSeconds) * time.Second
}

// AuthURL 生成授权跳转地址，并保存一次性 state
func (s *OAuthService) AuthURL(ctx context.Context, provider string) (string, error) {
	oauthCfg, err := s.oauthConfig(provider)
	if err != nil {
		return "", err
	}
	state, err := randomURLToken(24)
	if err != nil {
		return "", err
	}
	if err := cache.SaveOAuthState(ctx, state, cache.OAuthState{Provider: provider, CreatedAt: time.Now().Unix()}, s.stateTTL()); err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{}
	if provider == constants.OAuthProviderGoogle {
		opts = append(opts, oauth2.AccessTypeOffline)
	}
	return oauthCfg.AuthCodeURL(state, opts...), nil
}

// OAuthCallbackInput 回调输入
type OAuthCallbackInput struct {
	Provider     string
	Code         string
	State        string
	RequireState bool
}

// Callback 用授权码换取资料，按 (provider, oauth_id) 再按邮箱关联账号，否则创建新用户
func (s *OAuthService) Callback(ctx context.Context, input OAuthCallbackInput) (*models.User, *TokenPair, error) {
	oauthCfg, err := s.oauthConfig(input.Provider)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, nil, ErrOAuthStateInvalid
	}
	if input.RequireState || input.State != "" {
		saved, ok, err := cache.ConsumeOAuthState(ctx, input.State)
		if err != nil {
			return nil, nil, err
		}
		if !ok || saved.Provider != input.Provider {
			return nil, nil, ErrOAuthStateInvalid
		}
	}

	token, err := oauthCfg.Exchange(ctx, input.Code)
	if err != nil {
		logger.Warnw("oauth_exchange_failed", "provider", input.Provider, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrOAuthExchangeFailed, err)
	}
	profile, err := s.fetchProfile(ctx, input.Provider, oauthCfg.Client(ctx, token))
	if err != nil {
		logger.Warnw("oauth_profile_failed", "provider", input.Provider, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrOAuthExchangeFailed, err)
	}

	user, err := s.linkUser(profile)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrUserDisabled
	}
	return s.auth.completeLogin(user)
}

func (s *OAuthService) linkUser(profile *OAuthProfile) (*models.User, error) {
	user, err := s.userRepo.GetByOAuth(profile.Provider, profile.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	user, err = s.userRepo.GetByEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		user.OAuthProvider = profile.Provider
		user.OAuthID = profile.ID
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}
		logger.Infow("oauth_account_linked", "user_id", user.ID, "provider", profile.Provider)
		return user, nil
	}
	fullName := strings.TrimSpace(profile.FullName)
	if fullName == "" {
		fullName = strings.SplitN(profile.Email, "@", 2)[0]
	}
	user = &models.User{
		Email:         profile.Email,
		FullName:      fullName,
		Role:          constants.UserRoleCustomer,
		IsActive:      true,
		OAuthProvider: profile.Provider,
		OAuthID:       profile.ID,
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	logger.Infow("oauth_user_created", "user_id", user.ID, "provider", profile.Provider)
	return user, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("profile request %s returned %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (s *OAuthService) fetchProfile(ctx context.Context, provider string, client *http.Client) (*OAuthProfile, error) {
	urls := s.profileURLs[provider]
	switch provider {
	case constants.OAuthProviderGoogle:
		var info struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := getJSON(ctx, client, urls[0], &info); err != nil {
			return nil, err
		}
		return buildOAuthProfile(provider, info.ID, info.Email, info.Name)
	case constants.OAuthProviderGitHub:
		var info struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := getJSON(ctx, client, urls[0], &info); err != nil {
			return nil, err
		}
		email := info.Email
		if email == "" {
			var emails []struct {
				Email   string `json:"email"`
				Primary bool   `json:"primary"`
			}
			if err := getJSON(ctx, client, urls[1], &emails); err != nil {
				return nil, err
			}
			for _, item := range emails {
				if item.Primary {
					email = item.Email
					break
				}
			}
			if email == "" && len(emails) > 0 {
				email = emails[0].Email
			}
		}
		name := info.Name
		if name == "" {
			name = info.Login
		}
		return buildOAuthProfile(provider, strconv.FormatInt(info.ID, 10), email, name)
	default:
		return nil, ErrOAuthNotConfigured
	}
}

func buildOAuthProfile(provider, id, email, name string) (*OAuthProfile, error) {
	if strings.TrimSpace(id) == "" || id == "0" {
		return nil, fmt.Errorf("%s profile missing id", provider)
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s profile missing email", provider)
	}
	return &OAuthProfile{Provider: provider, ID: id, Email: normalized, FullName: strings.TrimSpace(name)}, nil
}
