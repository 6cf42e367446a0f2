package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/haukened/pageguard/internal/guard/common/clock"
	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/common/utils"
	"github.com/haukened/pageguard/internal/guard/config"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/gateways/browser"
	"github.com/haukened/pageguard/internal/guard/gateways/sink"
	"github.com/haukened/pageguard/internal/guard/gateways/transport"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist/bloom"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist/bolt"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist/lru"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist/memory"
	"github.com/haukened/pageguard/internal/guard/repos/domainlist/parsers"
	"github.com/haukened/pageguard/internal/guard/repos/rules"
	"github.com/haukened/pageguard/internal/guard/services/detector"
	"github.com/haukened/pageguard/internal/guard/services/evaluator"
	"github.com/haukened/pageguard/internal/guard/services/extractor"
	"github.com/haukened/pageguard/internal/guard/services/gate"
	"github.com/haukened/pageguard/internal/guard/services/monitor"
)

const (
	version = "0.1.0-dev"
	appName = "pageguardd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired components of the guard daemon.
type Application struct {
	config    *config.AppConfig
	clock     clock.Clock
	logger    log.Logger
	rules     rules.RuleSet
	store     domainlist.Store
	domains   domainlist.Repository
	evaluator *evaluator.Evaluator
	sinks     []sink.Sink
	transport transport.ServerTransport
	browser   *browser.Manager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.Log.Level,
		"http":      cfg.HTTP.Enabled,
		"browser":   cfg.Browser.Enabled,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Guard failed")
	}
	log.Info(nil, appName+" stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	rs, err := rules.Load(cfg.Rules.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	log.Info(map[string]any{
		"source":        rs.Source,
		"group1":        rs.Group1.Len(),
		"group2":        rs.Group2.Len(),
		"block_domains": len(rs.BlockDomains),
	}, "Rules loaded")

	store, domains, err := buildDomainList(cfg, rs, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build domain list: %w", err)
	}

	sinks := buildSinks(cfg, logger)

	eval := evaluator.New(evaluator.Options{
		Policy:    gate.New(domains, gate.NewSearchForms(rs.SearchIdentifiers)),
		Extractor: extractor.New(extractor.Options{Logger: logger}),
		Group1:    detector.New(rs.Group1),
		Group2:    detector.New(rs.Group2),
		Sink:      sink.NewFanOut(sinks...),
		Logger:    logger,
	})

	app := &Application{
		config:    cfg,
		clock:     clk,
		logger:    logger,
		rules:     rs,
		store:     store,
		domains:   domains,
		evaluator: eval,
		sinks:     sinks,
	}

	if cfg.HTTP.Enabled {
		app.transport = transport.NewHTTPTransport(cfg.HTTP.Addr, eval, domains, logger)
	}
	if cfg.Browser.Enabled {
		app.browser = browser.NewManager(browser.Config{
			Remote:   cfg.Browser.Remote,
			Headless: cfg.Browser.Headless,
			Stealth:  cfg.Browser.Stealth,
			Messages: rs.Messages,
			Logger:   logger,
		})
	}
	return app, nil
}

// buildDomainList loads the built-in and file block domains into the
// configured store and returns the repository over it.
func buildDomainList(cfg *config.AppConfig, rs rules.RuleSet, clk clock.Clock, logger log.Logger) (domainlist.Store, domainlist.Repository, error) {
	now := clk.Now()

	builtin := make([]domain.DomainRule, 0, len(rs.BlockDomains))
	for _, name := range rs.BlockDomains {
		r, err := domain.NewSuffixDomainRule(utils.CanonicalHost(name), "builtin", now)
		if err != nil {
			log.Warn(map[string]any{"domain": name, "error": err}, "Skipping invalid block domain")
			continue
		}
		builtin = append(builtin, r)
	}

	var fromFile []domain.DomainRule
	if cfg.Domains.File != "" {
		var err error
		fromFile, err = parsers.LoadFile(cfg.Domains.File, logger, now)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load domain list %s: %w", cfg.Domains.File, err)
		}
	}
	all := parsers.Merge(builtin, fromFile)

	var (
		store domainlist.Store
		err   error
	)
	if cfg.Domains.DB != "" {
		store, err = bolt.New(cfg.Domains.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open domain db %s: %w", cfg.Domains.DB, err)
		}
	} else {
		store = memory.New()
	}

	cache, err := lru.New(cfg.Domains.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to create decision cache: %w", err)
	}

	repo := domainlist.NewRepository(store, cache, bloom.NewFactory(), cfg.Domains.FPRate, logger)
	ver := store.Stats().Version + 1
	if err := repo.UpdateAll(all, ver, now.Unix()); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to index domain list: %w", err)
	}

	log.Info(map[string]any{
		"rules":      len(all),
		"file":       cfg.Domains.File,
		"db":         cfg.Domains.DB,
		"cache_size": cfg.Domains.CacheSize,
		"fp_rate":    cfg.Domains.FPRate,
		"version":    ver,
	}, "Domain list indexed")
	return store, repo, nil
}

// buildSinks always logs decisions and adds Redis when an address is set.
func buildSinks(cfg *config.AppConfig, logger log.Logger) []sink.Sink {
	sinks := []sink.Sink{sink.NewLogSink(logger)}
	if cfg.Sink.Redis.Addr != "" {
		sinks = append(sinks, sink.NewRedisSink(cfg.Sink.Redis.Addr, cfg.Sink.Redis.Channel))
		log.Info(map[string]any{
			"addr":    cfg.Sink.Redis.Addr,
			"channel": cfg.Sink.Redis.Channel,
		}, "Redis decision sink configured")
	}
	return sinks
}

func (app *Application) timing() monitor.Timing {
	m := app.config.Monitor
	return monitor.Timing{
		Settle:      m.Settle,
		FormsSettle: m.FormsSettle,
		FormsPoll:   m.FormsPoll,
		FormsBudget: m.FormsBudget,
		Debounce:    m.Debounce,
	}
}

// newMonitor is the per-load factory handed to each watched tab.
func (app *Application) newMonitor(p monitor.Page) *monitor.Monitor {
	return monitor.New(monitor.Options{
		Page:      p,
		Evaluator: app.evaluator,
		Clock:     app.clock,
		Timing:    app.timing(),
		Logger:    app.logger,
	})
}

// Run starts every enabled surface and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if app.transport != nil {
		if err := app.transport.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP transport: %w", err)
		}
		log.Info(map[string]any{"address": app.transport.Address()}, "HTTP transport started")
	}

	var wg sync.WaitGroup
	if app.browser != nil {
		if err := app.browser.Start(ctx); err != nil {
			app.stopTransport()
			return fmt.Errorf("failed to start browser: %w", err)
		}
		for _, u := range app.config.Browser.URLs {
			tab, err := app.browser.Open(ctx, u)
			if err != nil {
				log.Warn(map[string]any{"url": u, "error": err}, "Failed to open page")
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := tab.Watch(ctx, app.newMonitor); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn(map[string]any{"url": u, "error": err}, "Page watch ended")
				}
			}()
		}
		log.Info(map[string]any{"pages": len(app.config.Browser.URLs)}, "Browser monitoring started")
	}

	<-ctx.Done()
	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.stopTransport()
		if app.browser != nil {
			if err := app.browser.Close(); err != nil {
				log.Warn(map[string]any{"error": err}, "Error during browser shutdown")
			}
		}
		wg.Wait()
		app.closeResources()
		close(done)
	}()

	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}

func (app *Application) stopTransport() {
	if app.transport == nil {
		return
	}
	if err := app.transport.Stop(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
	}
}

func (app *Application) closeResources() {
	for _, s := range app.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				log.Warn(map[string]any{"error": err}, "Error closing sink")
			}
		}
	}
	if err := app.store.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing domain store")
	}
}
