package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newJSONContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.7:4321"
	return c
}

func TestKeyByIPAndJSONFieldKeepsBody(t *testing.T) {
	c := newJSONContext(`{"email":" Buyer@MDSR.tech ","password":"x"}`)

	key := KeyByIPAndJSONField("email")(c)
	if key != "buyer@mdsr.tech|10.0.0.7" {
		t.Fatalf("unexpected key: %s", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read restored body failed: %v", err)
	}
	if !strings.Contains(string(body), "Buyer@MDSR.tech") {
		t.Fatalf("body not restored: %s", body)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	cases := map[string]string{
		"missing field":  `{"password":"x"}`,
		"non string":     `{"email":42}`,
		"malformed json": `{"email":`,
		"empty body":     ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newJSONContext(body)
			if key := KeyByIPAndJSONField("email")(c); key != "10.0.0.7" {
				t.Fatalf("want ip fallback, got %s", key)
			}
		})
	}
}

func TestRateLimitMiddlewarePassesWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{Prefix: "rl:login", WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK || w.Body.String() != "pong" {
			t.Fatalf("request %d should pass, code=%d body=%s", i, w.Code, w.Body.String())
		}
	}
}

func TestRateLimitRuleKey(t *testing.T) {
	rule := RateLimitRule{Prefix: "mdsr:rl:register", WindowSeconds: 60, MaxRequests: 5}
	if got := rule.key("1.2.3.4"); got != "mdsr:rl:register:1.2.3.4" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := (RateLimitRule{}).key("1.2.3.4"); got != "1.2.3.4" {
		t.Fatalf("unexpected key without prefix: %s", got)
	}
	if (RateLimitRule{WindowSeconds: 60}).enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
}
