package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/haukened/pageguard/internal/guard/common/dom"
	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/domain"
	"github.com/haukened/pageguard/internal/guard/services/monitor"
)

// MonitorFactory builds the monitor for one page load of a tab.
type MonitorFactory func(p monitor.Page) *monitor.Monitor

// Tab adapts a rod page to monitor.Page.
type Tab struct {
	page     *rod.Page
	messages domain.BlockMessages
	logger   log.Logger

	mu      sync.Mutex
	url     string
	current *monitor.Monitor
}

func newTab(page *rod.Page, pageURL string, messages domain.BlockMessages, logger log.Logger) *Tab {
	return &Tab{page: page, url: pageURL, messages: messages, logger: logger}
}

func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *Tab) Snapshot(ctx context.Context) (*dom.Document, error) {
	res, err := t.page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("browser: snapshot: %w", err)
	}
	return decodeSnapshot(res.Value.Str())
}

func (t *Tab) Observe(ctx context.Context) error {
	if _, err := t.page.Context(ctx).Eval(observerJS, bindingName); err != nil {
		return fmt.Errorf("browser: inject observer: %w", err)
	}
	return nil
}

func (t *Tab) Disconnect(ctx context.Context) error {
	if _, err := t.page.Context(ctx).Eval(disconnectJS); err != nil {
		return fmt.Errorf("browser: disconnect observer: %w", err)
	}
	return nil
}

func (t *Tab) RenderBlock(ctx context.Context, d domain.BlockDecision) error {
	if _, err := t.page.Context(ctx).Eval(renderJS, newRenderPayload(d, t.messages)); err != nil {
		return fmt.Errorf("browser: render block: %w", err)
	}
	return nil
}

// Watch runs a fresh monitor for the current document and for every later
// page load, forwarding observer batches to the active one. It blocks until
// ctx is done.
func (t *Tab) Watch(ctx context.Context, factory MonitorFactory) error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(t.page); err != nil {
		return fmt.Errorf("browser: add binding: %w", err)
	}

	t.restart(ctx, factory)

	wait := t.page.Context(ctx).EachEvent(
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != bindingName {
				return
			}
			kinds, err := decodeMutations(e.Payload)
			if err != nil {
				t.logger.Warn(map[string]any{"url": t.URL(), "error": err}, "bad observer payload")
				return
			}
			t.mu.Lock()
			m := t.current
			t.mu.Unlock()
			if m != nil {
				m.Mutations(kinds)
			}
		},
		func(*proto.PageLoadEventFired) {
			t.restart(ctx, factory)
		},
	)
	wait()
	t.stopCurrent()
	return ctx.Err()
}

// restart replaces the active monitor with one for the page now loaded.
func (t *Tab) restart(ctx context.Context, factory MonitorFactory) {
	t.stopCurrent()
	if info, err := t.page.Info(); err == nil && info.URL != "" {
		t.mu.Lock()
		t.url = info.URL
		t.mu.Unlock()
	}
	m := factory(t)
	t.mu.Lock()
	t.current = m
	t.mu.Unlock()
	t.logger.Debug(map[string]any{"url": t.URL()}, "page load, monitor started")
	m.Start(ctx)
}

func (t *Tab) stopCurrent() {
	t.mu.Lock()
	m := t.current
	t.current = nil
	t.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}

func (t *Tab) Close() error {
	t.stopCurrent()
	return t.page.Close()
}

var _ monitor.Page = (*Tab)(nil)
