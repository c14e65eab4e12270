package stripe

import (
	"errors"
	"net/http"
	"time"

	"github.com/mdsrtech/internal/logger"

	"github.com/sony/gobreaker/v2"
	stripeapi "github.com/stripe/stripe-go/v78"
)

// BreakerSettings 熔断器参数
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

type sessionBreaker struct {
	cb *gobreaker.CircuitBreaker[*stripeapi.CheckoutSession]
}

func newSessionBreaker(settings BreakerSettings) *sessionBreaker {
	failures := settings.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	maxRequests := settings.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[*stripeapi.CheckoutSession](gobreaker.Settings{
		Name:        "stripe_checkout",
		MaxRequests: maxRequests,
		Interval:    settings.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("stripe_breaker_state_changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isBreakerSuccess,
	})
	return &sessionBreaker{cb: cb}
}

func (b *sessionBreaker) execute(fn func() (*stripeapi.CheckoutSession, error)) (*stripeapi.CheckoutSession, error) {
	return b.cb.Execute(fn)
}

func (b *sessionBreaker) state() gobreaker.State {
	return b.cb.State()
}

// isBreakerSuccess 调用方错误（4xx，除 429）不计入失败
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) {
		code := stripeErr.HTTPStatusCode
		return code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests
	}
	return false
}
