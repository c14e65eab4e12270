package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mdsrtech/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	UseClient(nil, "")
	ctx := context.Background()
	if err := SetJSON(ctx, "catalog:x", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	var dest map[string]int
	hit, err := GetJSON(ctx, "catalog:x", &dest)
	if err != nil || hit {
		t.Fatalf("disabled cache should miss, hit=%v err=%v", hit, err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	UseClient(nil, "shop")
	if got := BuildKey("auth:user:1"); got != "shop:auth:user:1" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := BuildKey(" "); got != "shop" {
		t.Fatalf("blank key should return prefix, got %s", got)
	}
}

func TestLocalOAuthStateIsSingleUse(t *testing.T) {
	UseClient(nil, "")
	ctx := context.Background()
	if err := SaveOAuthState(ctx, "state-1", OAuthState{Provider: "github"}, time.Minute); err != nil {
		t.Fatalf("save state failed: %v", err)
	}
	got, ok, err := ConsumeOAuthState(ctx, "state-1")
	if err != nil || !ok || got.Provider != "github" {
		t.Fatalf("consume should return saved state, got %+v ok=%v err=%v", got, ok, err)
	}
	_, ok, _ = ConsumeOAuthState(ctx, "state-1")
	if ok {
		t.Fatalf("state must be consumed only once")
	}
}

func TestLocalOAuthStateExpires(t *testing.T) {
	UseClient(nil, "")
	ctx := context.Background()
	if err := SaveOAuthState(ctx, "state-expired", OAuthState{Provider: "google"}, -time.Second); err != nil {
		t.Fatalf("save state failed: %v", err)
	}
	if _, ok, _ := ConsumeOAuthState(ctx, "state-expired"); ok {
		t.Fatalf("expired state should be rejected")
	}
}

func TestBuildUserAuthState(t *testing.T) {
	now := time.Unix(1700000000, 0)
	state := BuildUserAuthState(&models.User{ID: 7, Role: "admin", IsActive: true, TokenVersion: 3, TokenInvalidBefore: &now})
	if state.UserID != 7 || state.Role != "admin" || !state.IsActive || state.TokenVersion != 3 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.TokenInvalidBefore != now.Unix() {
		t.Fatalf("token invalid before want %d got %d", now.Unix(), state.TokenInvalidBefore)
	}
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("nil user should produce nil state")
	}
}

func TestUserAuthStateAcceptsToken(t *testing.T) {
	cutoff := time.Unix(1700000000, 0)
	state := &UserAuthState{UserID: 1, IsActive: true, TokenVersion: 2, TokenInvalidBefore: cutoff.Unix()}

	cases := []struct {
		name     string
		version  uint64
		issuedAt time.Time
		want     bool
	}{
		{name: "current", version: 2, issuedAt: cutoff.Add(time.Minute), want: true},
		{name: "issued at cutoff", version: 2, issuedAt: cutoff, want: true},
		{name: "issued before cutoff", version: 2, issuedAt: cutoff.Add(-time.Second), want: false},
		{name: "stale version", version: 1, issuedAt: cutoff.Add(time.Minute), want: false},
		{name: "missing iat", version: 2, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := state.AcceptsToken(tc.version, tc.issuedAt); got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}

	noCutoff := &UserAuthState{UserID: 1, IsActive: true}
	if !noCutoff.AcceptsToken(0, time.Time{}) {
		t.Fatalf("state without cutoff should accept matching version")
	}
	disabled := &UserAuthState{UserID: 1, TokenVersion: 0}
	if disabled.AcceptsToken(0, time.Now()) {
		t.Fatalf("inactive user should not be accepted")
	}
}
