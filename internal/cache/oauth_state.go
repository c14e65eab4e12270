package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OAuthState 第三方登录发起时保存的上下文
type OAuthState struct {
	Provider  string `json:"provider"`
	CreatedAt int64  `json:"created_at"`
}

// Redis 未启用时的进程内兜底存储
var (
	localOAuthStates   = make(map[string]localOAuthEntry)
	localOAuthStatesMu sync.Mutex
)

type localOAuthEntry struct {
	state     OAuthState
	expiresAt time.Time
}

func oauthStateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

// SaveOAuthState 保存 OAuth state
func SaveOAuthState(ctx context.Context, state string, value OAuthState, ttl time.Duration) error {
	if state == "" {
		return errors.New("empty oauth state")
	}
	if Enabled() {
		return SetJSON(ctx, oauthStateKey(state), value, ttl)
	}
	localOAuthStatesMu.Lock()
	defer localOAuthStatesMu.Unlock()
	now := time.Now()
	for key, entry := range localOAuthStates {
		if now.After(entry.expiresAt) {
			delete(localOAuthStates, key)
		}
	}
	localOAuthStates[state] = localOAuthEntry{state: value, expiresAt: now.Add(ttl)}
	return nil
}

// ConsumeOAuthState 读取并删除 OAuth state，一次性有效
func ConsumeOAuthState(ctx context.Context, state string) (*OAuthState, bool, error) {
	if state == "" {
		return nil, false, nil
	}
	if Enabled() {
		raw, err := redisClient.GetDel(ctx, BuildKey(oauthStateKey(state))).Result()
		if err == redis.Nil {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		var value OAuthState
		if err := decodeJSON(raw, &value); err != nil {
			return nil, false, err
		}
		return &value, true, nil
	}
	localOAuthStatesMu.Lock()
	defer localOAuthStatesMu.Unlock()
	entry, ok := localOAuthStates[state]
	if !ok {
		return nil, false, nil
	}
	delete(localOAuthStates, state)
	if time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	value := entry.state
	return &value, true, nil
}
