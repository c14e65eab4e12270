package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mdsrtech/internal/config"
	"github.com/mdsrtech/internal/constants"
	"github.com/mdsrtech/internal/models"
	"github.com/mdsrtech/internal/repository"

	"golang.org/x/oauth2"
)

type fakeOAuthProvider struct {
	server      *httptest.Server
	githubUser  map[string]interface{}
	githubMails []map[string]interface{}
	googleUser  map[string]interface{}
}

func newFakeOAuthProvider(t *testing.T) *fakeOAuthProvider {
	t.Helper()
	p := &fakeOAuthProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer","expires_in":3600}`))
	})
	writeJSON := func(w http.ResponseWriter, r *http.Request, v interface{}) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/github/user", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, r, p.githubUser) })
	mux.HandleFunc("/github/emails", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, r, p.githubMails) })
	mux.HandleFunc("/google/userinfo", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, r, p.googleUser) })
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func newOAuthTestService(t *testing.T, name string, provider *fakeOAuthProvider) (*OAuthService, *repository.GormUserRepository) {
	t.Helper()
	db := openServiceTestDB(t, name)
	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "unit-test-secret"
	cfg.OAuth = config.OAuthConfig{
		Google: config.OAuthProviderConfig{ClientID: "gid", ClientSecret: "gsecret", RedirectURL: "https://shop.test/api/auth/google/callback"},
		GitHub: config.OAuthProviderConfig{ClientID: "hid", ClientSecret: "hsecret", RedirectURL: "https://shop.test/api/auth/github/callback"},
	}
	userRepo := repository.NewUserRepository(db)
	svc := NewOAuthService(cfg.OAuth, NewUserAuthService(cfg, userRepo), userRepo)
	endpoint := oauth2.Endpoint{
		AuthURL:   provider.server.URL + "/authorize",
		TokenURL:  provider.server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	svc.endpoints[constants.OAuthProviderGoogle] = endpoint
	svc.endpoints[constants.OAuthProviderGitHub] = endpoint
	svc.profileURLs[constants.OAuthProviderGoogle] = []string{provider.server.URL + "/google/userinfo"}
	svc.profileURLs[constants.OAuthProviderGitHub] = []string{provider.server.URL + "/github/user", provider.server.URL + "/github/emails"}
	return svc, userRepo
}

func stateFromAuthURL(t *testing.T, raw string) string {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url failed: %v", err)
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatalf("state missing in %s", raw)
	}
	return state
}

func TestOAuthGitHubCreatesUserWithPrimaryEmail(t *testing.T) {
	provider := newFakeOAuthProvider(t)
	provider.githubUser = map[string]interface{}{"id": 4242, "login": "octo", "name": ""}
	provider.githubMails = []map[string]interface{}{
		{"email": "secondary@example.com", "primary": false},
		{"email": "Octo@Example.com", "primary": true},
	}
	svc, _ := newOAuthTestService(t, "oauth_github", provider)

	authURL, err := svc.AuthURL(t.Context(), constants.OAuthProviderGitHub)
	if err != nil {
		t.Fatalf("auth url failed: %v", err)
	}
	state := stateFromAuthURL(t, authURL)

	user, tokens, err := svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGitHub, Code: "good-code", State: state, RequireState: true})
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if user.Email != "octo@example.com" || user.FullName != "octo" || user.OAuthID != "4242" || user.HasPassword() {
		t.Fatalf("unexpected oauth user: %+v", user)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", tokens)
	}

	// state 只能使用一次
	_, _, err = svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGitHub, Code: "good-code", State: state, RequireState: true})
	if !errors.Is(err, ErrOAuthStateInvalid) {
		t.Fatalf("replayed state want ErrOAuthStateInvalid, got %v", err)
	}
}

func TestOAuthGoogleLinksExistingEmail(t *testing.T) {
	provider := newFakeOAuthProvider(t)
	provider.googleUser = map[string]interface{}{"id": "g-77", "email": "gina@example.com", "name": "Gina"}
	svc, userRepo := newOAuthTestService(t, "oauth_google", provider)
	existing := &models.User{Email: "gina@example.com", FullName: "Gina Existing", PasswordHash: "hash", Role: constants.UserRoleCustomer, IsActive: true}
	if err := userRepo.Create(existing); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	user, _, err := svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGoogle, Code: "good-code"})
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if user.ID != existing.ID || user.OAuthProvider != constants.OAuthProviderGoogle || user.OAuthID != "g-77" {
		t.Fatalf("expected existing user linked, got %+v", user)
	}

	linked, err := userRepo.GetByOAuth(constants.OAuthProviderGoogle, "g-77")
	if err != nil || linked == nil || linked.ID != existing.ID {
		t.Fatalf("lookup by oauth failed: user=%v err=%v", linked, err)
	}
}

func TestOAuthCallbackErrors(t *testing.T) {
	provider := newFakeOAuthProvider(t)
	provider.googleUser = map[string]interface{}{"id": "g-1", "email": "", "name": "No Mail"}
	svc, _ := newOAuthTestService(t, "oauth_errors", provider)

	if _, err := svc.AuthURL(t.Context(), "facebook"); !errors.Is(err, ErrOAuthNotConfigured) {
		t.Fatalf("want ErrOAuthNotConfigured, got %v", err)
	}
	if _, _, err := svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGoogle, Code: "good-code", State: "unknown"}); !errors.Is(err, ErrOAuthStateInvalid) {
		t.Fatalf("unknown state want ErrOAuthStateInvalid, got %v", err)
	}
	if _, _, err := svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGoogle, Code: "bad-code"}); !errors.Is(err, ErrOAuthExchangeFailed) {
		t.Fatalf("bad code want ErrOAuthExchangeFailed, got %v", err)
	}
	if _, _, err := svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGoogle, Code: "good-code"}); !errors.Is(err, ErrOAuthExchangeFailed) {
		t.Fatalf("profile without email want ErrOAuthExchangeFailed, got %v", err)
	}

	authURL, err := svc.AuthURL(t.Context(), constants.OAuthProviderGoogle)
	if err != nil {
		t.Fatalf("auth url failed: %v", err)
	}
	state := stateFromAuthURL(t, authURL)
	_, _, err = svc.Callback(t.Context(), OAuthCallbackInput{Provider: constants.OAuthProviderGitHub, Code: "good-code", State: state})
	if !errors.Is(err, ErrOAuthStateInvalid) {
		t.Fatalf("state from another provider want ErrOAuthStateInvalid, got %v", err)
	}
}
