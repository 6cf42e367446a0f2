package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log     LogConfig     `koanf:"log"`
	HTTP    HTTPConfig    `koanf:"http"`
	Rules   RulesConfig   `koanf:"rules"`
	Domains DomainsConfig `koanf:"domains"`
	Monitor MonitorConfig `koanf:"monitor"`
	Browser BrowserConfig `koanf:"browser"`
	Sink    SinkConfig    `koanf:"sink"`
}

type LogConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

type HTTPConfig struct {
	Enabled bool `koanf:"enabled"`
	// Addr is the listen address in host:port form.
	Addr string `koanf:"addr" validate:"required,host_port"`
}

type RulesConfig struct {
	// File is a YAML, JSON or TOML rules file. Empty means built-in rules.
	File string `koanf:"file"`
}

type DomainsConfig struct {
	// File is an optional plain or hosts-format block-domain list.
	File string `koanf:"file"`
	// DB is a bbolt database path. Empty keeps the list in memory.
	DB        string  `koanf:"db"`
	CacheSize int     `koanf:"cache_size" validate:"required,gte=1"`
	FPRate    float64 `koanf:"fp_rate" validate:"gt=0,lt=1"`
}

type MonitorConfig struct {
	Settle      time.Duration `koanf:"settle" validate:"gt=0"`
	FormsSettle time.Duration `koanf:"forms_settle" validate:"gt=0"`
	FormsPoll   time.Duration `koanf:"forms_poll" validate:"gt=0"`
	FormsBudget time.Duration `koanf:"forms_budget" validate:"gt=0"`
	Debounce    time.Duration `koanf:"debounce" validate:"gt=0"`
}

type BrowserConfig struct {
	Enabled  bool `koanf:"enabled"`
	Headless bool `koanf:"headless"`
	// Remote is a DevTools websocket URL. Empty launches a local browser.
	Remote  string   `koanf:"remote" validate:"omitempty,url"`
	Stealth bool     `koanf:"stealth"`
	URLs    []string `koanf:"urls" validate:"dive,url"`
}

type SinkConfig struct {
	Redis RedisSinkConfig `koanf:"redis"`
}

type RedisSinkConfig struct {
	// Addr enables the Redis sink when set.
	Addr    string `koanf:"addr" validate:"omitempty,host_port"`
	Channel string `koanf:"channel" validate:"required_with=Addr"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LogConfig{Level: "info"},
	HTTP: HTTPConfig{
		Enabled: true,
		Addr:    "127.0.0.1:8080",
	},
	Domains: DomainsConfig{
		CacheSize: 1000,
		FPRate:    0.01,
	},
	Monitor: MonitorConfig{
		Settle:      1000 * time.Millisecond,
		FormsSettle: 2000 * time.Millisecond,
		FormsPoll:   1000 * time.Millisecond,
		FormsBudget: 30 * time.Second,
		Debounce:    500 * time.Millisecond,
	},
	Browser: BrowserConfig{
		Headless: true,
		Stealth:  true,
	},
	Sink: SinkConfig{
		Redis: RedisSinkConfig{Channel: "pageguard:decisions"},
	},
}

// envKeys maps PG_ environment variables to config paths.
var envKeys = map[string]string{
	"PG_ENV":                  "env",
	"PG_LOG_LEVEL":            "log.level",
	"PG_HTTP_ENABLED":         "http.enabled",
	"PG_HTTP_ADDR":            "http.addr",
	"PG_RULES_FILE":           "rules.file",
	"PG_DOMAINS_FILE":         "domains.file",
	"PG_DOMAINS_DB":           "domains.db",
	"PG_DOMAINS_CACHE_SIZE":   "domains.cache_size",
	"PG_DOMAINS_FP_RATE":      "domains.fp_rate",
	"PG_MONITOR_SETTLE":       "monitor.settle",
	"PG_MONITOR_FORMS_SETTLE": "monitor.forms_settle",
	"PG_MONITOR_FORMS_POLL":   "monitor.forms_poll",
	"PG_MONITOR_FORMS_BUDGET": "monitor.forms_budget",
	"PG_MONITOR_DEBOUNCE":     "monitor.debounce",
	"PG_BROWSER_ENABLED":      "browser.enabled",
	"PG_BROWSER_HEADLESS":     "browser.headless",
	"PG_BROWSER_REMOTE":       "browser.remote",
	"PG_BROWSER_STEALTH":      "browser.stealth",
	"PG_BROWSER_URLS":         "browser.urls",
	"PG_SINK_REDIS_ADDR":      "sink.redis.addr",
	"PG_SINK_REDIS_CHANNEL":   "sink.redis.channel",
}

// listKeys are split on spaces and commas.
var listKeys = map[string]bool{
	"browser.urls": true,
}

// validHostPort accepts "host:port" with an optional host and a port in 1..65535.
func validHostPort(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n > 0
}

// envLoader loads PG_ environment variables and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "PG_",
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[key]
			if !ok {
				return "", nil
			}
			value = strings.TrimSpace(value)
			if listKeys[path] {
				return path, strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
			}
			return path, value
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "host_port" tag.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("host_port", validHostPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
