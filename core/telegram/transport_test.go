package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/finbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatalf("webhook mode must build a webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example" {
		t.Fatalf("webhook = %+v", wh)
	}

	lp, ok := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll}).(*tele.LongPoller)
	if !ok || lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("long poller = %+v", lp)
	}
	lp = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 3}).(*tele.LongPoller)
	if lp.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		}),
		maxRetries: 3,
	}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("tls: bad certificate")
		}),
		maxRetries: 3,
	}
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("a=b"))
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestShouldRetry(t *testing.T) {
	if shouldRetry(nil) || shouldRetry(context.Canceled) {
		t.Fatalf("nil and canceled must not retry")
	}
	if !shouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatalf("dial errors must retry")
	}
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) string {
		out := make([]string, len(mws))
		for i, m := range mws {
			out[i] = m.Name
		}
		return strings.Join(out, ",")
	}
	if got := names(DefaultMiddlewares(nil, nil)); got != "recover,logger" {
		t.Fatalf("chain = %s", got)
	}
	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500}}
	if got := names(DefaultMiddlewares(cfg, nil)); got != "recover,rate_limit,logger" {
		t.Fatalf("chain = %s", got)
	}
}
