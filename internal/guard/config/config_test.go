package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected Log.Level=info, got %q", cfg.Log.Level)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Addr != "127.0.0.1:8080" {
		t.Errorf("unexpected HTTP defaults: %+v", cfg.HTTP)
	}
	if cfg.Rules.File != "" {
		t.Errorf("expected built-in rules by default, got %q", cfg.Rules.File)
	}
	if cfg.Domains.CacheSize != 1000 || cfg.Domains.FPRate != 0.01 || cfg.Domains.DB != "" {
		t.Errorf("unexpected Domains defaults: %+v", cfg.Domains)
	}

	want := MonitorConfig{
		Settle:      time.Second,
		FormsSettle: 2 * time.Second,
		FormsPoll:   time.Second,
		FormsBudget: 30 * time.Second,
		Debounce:    500 * time.Millisecond,
	}
	if cfg.Monitor != want {
		t.Errorf("expected Monitor=%+v, got %+v", want, cfg.Monitor)
	}

	if cfg.Browser.Enabled || !cfg.Browser.Headless || !cfg.Browser.Stealth {
		t.Errorf("unexpected Browser defaults: %+v", cfg.Browser)
	}
	if len(cfg.Browser.URLs) != 0 {
		t.Errorf("expected no browser URLs by default, got %v", cfg.Browser.URLs)
	}
	if cfg.Sink.Redis.Addr != "" || cfg.Sink.Redis.Channel != "pageguard:decisions" {
		t.Errorf("unexpected Sink defaults: %+v", cfg.Sink)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("PG_ENV", "dev")
	t.Setenv("PG_LOG_LEVEL", "debug")
	t.Setenv("PG_HTTP_ADDR", ":9090")
	t.Setenv("PG_HTTP_ENABLED", "false")
	t.Setenv("PG_RULES_FILE", "/etc/pageguard/rules.yaml")
	t.Setenv("PG_DOMAINS_FILE", "/etc/pageguard/domains.txt")
	t.Setenv("PG_DOMAINS_DB", "/tmp/domains.db")
	t.Setenv("PG_DOMAINS_CACHE_SIZE", "5000")
	t.Setenv("PG_DOMAINS_FP_RATE", "0.001")
	t.Setenv("PG_MONITOR_DEBOUNCE", "300ms")
	t.Setenv("PG_MONITOR_FORMS_BUDGET", "1m")
	t.Setenv("PG_BROWSER_ENABLED", "true")
	t.Setenv("PG_BROWSER_HEADLESS", "false")
	t.Setenv("PG_BROWSER_URLS", "https://a.example/contact, https://b.example/form")
	t.Setenv("PG_SINK_REDIS_ADDR", "localhost:6379")
	t.Setenv("PG_SINK_REDIS_CHANNEL", "blocks")
	t.Setenv("PG_UNKNOWN_SETTING", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected env/log: %q %q", cfg.Env, cfg.Log.Level)
	}
	if cfg.HTTP.Enabled || cfg.HTTP.Addr != ":9090" {
		t.Errorf("unexpected HTTP: %+v", cfg.HTTP)
	}
	if cfg.Rules.File != "/etc/pageguard/rules.yaml" {
		t.Errorf("unexpected Rules.File: %q", cfg.Rules.File)
	}
	if cfg.Domains.File != "/etc/pageguard/domains.txt" || cfg.Domains.DB != "/tmp/domains.db" {
		t.Errorf("unexpected Domains paths: %+v", cfg.Domains)
	}
	if cfg.Domains.CacheSize != 5000 || cfg.Domains.FPRate != 0.001 {
		t.Errorf("unexpected Domains sizing: %+v", cfg.Domains)
	}
	if cfg.Monitor.Debounce != 300*time.Millisecond || cfg.Monitor.FormsBudget != time.Minute {
		t.Errorf("unexpected Monitor: %+v", cfg.Monitor)
	}
	if cfg.Monitor.Settle != time.Second {
		t.Errorf("expected untouched Settle default, got %v", cfg.Monitor.Settle)
	}
	if !cfg.Browser.Enabled || cfg.Browser.Headless {
		t.Errorf("unexpected Browser: %+v", cfg.Browser)
	}
	wantURLs := []string{"https://a.example/contact", "https://b.example/form"}
	if len(cfg.Browser.URLs) != len(wantURLs) {
		t.Fatalf("expected Browser.URLs %v, got %v", wantURLs, cfg.Browser.URLs)
	}
	for i, v := range wantURLs {
		if cfg.Browser.URLs[i] != v {
			t.Errorf("expected Browser.URLs[%d]=%q, got %q", i, v, cfg.Browser.URLs[i])
		}
	}
	if cfg.Sink.Redis.Addr != "localhost:6379" || cfg.Sink.Redis.Channel != "blocks" {
		t.Errorf("unexpected Sink: %+v", cfg.Sink)
	}
}

func TestLoad_SingleBrowserURL(t *testing.T) {
	t.Setenv("PG_BROWSER_URLS", "https://a.example/contact")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Browser.URLs) != 1 || cfg.Browser.URLs[0] != "https://a.example/contact" {
		t.Errorf("unexpected Browser.URLs: %v", cfg.Browser.URLs)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"PG_ENV":                "staging",
		"PG_LOG_LEVEL":          "trace",
		"PG_HTTP_ADDR":          "localhost",
		"PG_DOMAINS_CACHE_SIZE": "0",
		"PG_DOMAINS_FP_RATE":    "1.5",
		"PG_MONITOR_DEBOUNCE":   "0s",
		"PG_BROWSER_REMOTE":     "not a url",
		"PG_SINK_REDIS_ADDR":    "redis:99999",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q, got nil", key, val)
			}
		})
	}
}

func TestLoad_DurationNaN(t *testing.T) {
	t.Setenv("PG_MONITOR_SETTLE", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-duration PG_MONITOR_SETTLE, got nil")
	}
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading defaults, got nil")
	}
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked error") {
		t.Fatal("expected error when loading env, got nil")
	}
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "mocked validation error") {
		t.Fatal("expected error when registering validation, got nil")
	}
}

func TestValidHostPort(t *testing.T) {
	v := validator.New()
	if err := v.RegisterValidation("host_port", validHostPort); err != nil {
		t.Fatalf("register: %v", err)
	}
	type probe struct {
		Addr string `validate:"host_port"`
	}
	good := []string{"127.0.0.1:8080", ":80", "localhost:6379", "[::1]:443"}
	bad := []string{"", "localhost", "host:0", "host:70000", "host:http"}
	for _, a := range good {
		if err := v.Struct(probe{Addr: a}); err != nil {
			t.Errorf("expected %q to be valid: %v", a, err)
		}
	}
	for _, a := range bad {
		if err := v.Struct(probe{Addr: a}); err == nil {
			t.Errorf("expected %q to be invalid", a)
		}
	}
}
