// Package browser drives a Chrome instance over the DevTools protocol with
// go-rod and adapts its tabs to the monitor's Page interface.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
)

const navigateTimeout = 30 * time.Second

type Config struct {
	// Remote is the DevTools websocket URL of an external Chrome. Empty launches one.
	Remote   string
	Headless bool
	Stealth  bool
	Messages domain.BlockMessages
	Logger   log.Logger
}

// Manager owns the browser connection and the tabs opened through it.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	tabs    []*Tab
	closed  bool
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNoopLogger()
	}
	cfg.Messages = cfg.Messages.Merge(domain.DefaultBlockMessages())
	return &Manager{cfg: cfg}
}

// Start launches a local Chrome, or connects to Remote when set.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	wsURL := m.cfg.Remote
	if wsURL == "" {
		l := launcher.New().
			Headless(m.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		m.cfg.Logger.Info(map[string]any{"url": wsURL, "headless": m.cfg.Headless}, "launched local chrome")
	} else {
		m.cfg.Logger.Info(map[string]any{"url": wsURL}, "connecting to remote chrome")
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		m.cleanupLocked()
		return fmt.Errorf("browser: connect: %w", err)
	}
	m.browser = b
	return nil
}

// Open creates a tab and navigates it to pageURL.
func (m *Manager) Open(ctx context.Context, pageURL string) (*Tab, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	var (
		page *rod.Page
		err  error
	)
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		m.cfg.Logger.Warn(map[string]any{"url": pageURL, "error": err}, "wait load timed out")
	}

	tab := newTab(page, pageURL, m.cfg.Messages, m.cfg.Logger)
	m.mu.Lock()
	m.tabs = append(m.tabs, tab)
	m.mu.Unlock()
	return tab, nil
}

// Close closes every tab and the browser.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, t := range m.tabs {
		if err := t.Close(); err != nil {
			m.cfg.Logger.Debug(map[string]any{"url": t.URL(), "error": err}, "tab close failed")
		}
	}
	m.tabs = nil
	return m.cleanupLocked()
}

func (m *Manager) cleanupLocked() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}
