package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: from-yaml
  run_mode: polling
rate_limit:
  interval_ms: 300
  exclude_updates: [" Callback "]
`)
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.RateLimit.IntervalMS != 300 {
		t.Fatalf("interval = %d", cfg.RateLimit.IntervalMS)
	}
	if got := cfg.RateLimit.ExcludeUpdates[0]; got != UpdateCallback {
		t.Fatalf("exclude = %q, want %q", got, UpdateCallback)
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	cases := map[string]Config{
		"missing token": {},
		"bad run mode":  {Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
		"webhook without url": {
			Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook},
		},
		"bad exclude": {
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}},
		},
	}
	for name, cfg := range cases {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
