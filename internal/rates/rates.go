// Package rates fetches RUB conversion rates from the external exchange service.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/finbot/core/logger"
)

var (
	// ErrUnknownCurrency means the service explicitly rejected the currency code.
	ErrUnknownCurrency = errors.New("rates: unknown currency")
	// ErrUpstream means the service reported an internal failure.
	ErrUpstream = errors.New("rates: upstream error")
	// ErrUnavailable covers every other failure: timeouts, dial errors, odd statuses, bad payloads.
	ErrUnavailable = errors.New("rates: unavailable")
)

// Provider returns the divisor that converts a RUB amount into currency.
type Provider interface {
	Rate(ctx context.Context, currency string) (float64, error)
}

// Config describes the exchange service endpoint.
type Config struct {
	Endpoint  string `yaml:"endpoint" envconfig:"RATES_ENDPOINT"`
	TimeoutMS int    `yaml:"timeout_ms" envconfig:"RATES_TIMEOUT_MS"`
}

const defaultTimeout = 5 * time.Second

// Client calls GET <endpoint>?currency=XXX. It neither retries nor caches.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient validates cfg and builds a client. A nil httpClient gets a
// dedicated client bounded by cfg.TimeoutMS.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("rates: invalid endpoint %q: %w", cfg.Endpoint, err)
	}
	if httpClient == nil {
		timeout := defaultTimeout
		if cfg.TimeoutMS > 0 {
			timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DialContext:       (&net.Dialer{Timeout: timeout}).DialContext,
				DisableKeepAlives: true,
			},
		}
	}
	return &Client{endpoint: cfg.Endpoint, http: httpClient}, nil
}

type rateResponse struct {
	Rate *float64 `json:"rate"`
}

// Rate fetches the current rate for currency.
func (c *Client) Rate(ctx context.Context, currency string) (float64, error) {
	start := time.Now()
	rate, status, err := c.fetch(ctx, currency)

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("currency", currency),
		slog.Int("http_code", status),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	} else {
		attrs = append(attrs, slog.Float64("rate", rate))
	}
	logger.Rates.LogAttrs(ctx, level, "rate.fetch", attrs...)
	return rate, err
}

func (c *Client) fetch(ctx context.Context, currency string) (float64, int, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	q := u.Query()
	q.Set("currency", currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return 0, resp.StatusCode, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	case http.StatusInternalServerError:
		return 0, resp.StatusCode, ErrUpstream
	default:
		return 0, resp.StatusCode, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, resp.StatusCode, fmt.Errorf("%w: decode body: %v", ErrUnavailable, err)
	}
	if body.Rate == nil || *body.Rate <= 0 {
		return 0, resp.StatusCode, fmt.Errorf("%w: missing or non-positive rate", ErrUnavailable)
	}
	return *body.Rate, resp.StatusCode, nil
}
