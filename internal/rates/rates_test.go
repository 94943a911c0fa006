package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Endpoint: srv.URL + "/rate", TimeoutMS: 500}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientRateSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate" || r.URL.Query().Get("currency") != "USD" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		_, _ = w.Write([]byte(`{"rate": 92.5}`))
	})

	rate, err := c.Rate(context.Background(), "USD")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if rate != 92.5 {
		t.Fatalf("rate = %v", rate)
	}
}

func TestClientRateErrors(t *testing.T) {
	cases := []struct {
		name string
		h    http.HandlerFunc
		want error
	}{
		{"unknown currency", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) }, ErrUnknownCurrency},
		{"upstream", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }, ErrUpstream},
		{"bad gateway", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }, ErrUnavailable},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{rate`)) }, ErrUnavailable},
		{"missing rate", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{}`)) }, ErrUnavailable},
		{"zero rate", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"rate":0}`)) }, ErrUnavailable},
		{"timeout", func(w http.ResponseWriter, _ *http.Request) { time.Sleep(time.Second) }, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.h)
			_, err := c.Rate(context.Background(), "EUR")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: endpoint}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Rate(context.Background(), "USD"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "not a url"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
