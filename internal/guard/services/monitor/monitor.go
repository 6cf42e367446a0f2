package monitor

import (
	"context"
	"net/url"
	"sync"

	"github.com/haukened/pageguard/internal/guard/common/clock"
	"github.com/haukened/pageguard/internal/guard/common/log"
	"github.com/haukened/pageguard/internal/guard/common/utils"
	"github.com/haukened/pageguard/internal/guard/domain"
)

// Monitor serialises events for one page load and performs the effects that
// Transition returns.
type Monitor struct {
	mu     sync.Mutex
	ctx    context.Context
	page   Page
	eval   Evaluator
	clock  clock.Clock
	timing Timing
	logger log.Logger

	state  State
	timers map[TimerID]clock.Timer
	done   chan struct{}
}

type Options struct {
	Page      Page
	Evaluator Evaluator
	Clock     clock.Clock
	Timing    Timing
	Logger    log.Logger
}

func New(opts Options) *Monitor {
	m := &Monitor{
		page:   opts.Page,
		eval:   opts.Evaluator,
		clock:  opts.Clock,
		timing: opts.Timing,
		logger: opts.Logger,
		timers: make(map[TimerID]clock.Timer),
		done:   make(chan struct{}),
	}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.timing == (Timing{}) {
		m.timing = DefaultTiming()
	}
	if m.logger == nil {
		m.logger = log.NewNoopLogger()
	}
	m.logger = m.logger.With(map[string]any{"page": opts.Page.URL()})
	return m
}

// Start delivers the load event. ctx bounds every page call the monitor makes.
func (m *Monitor) Start(ctx context.Context) {
	host, path := "", "/"
	if u, err := url.Parse(m.page.URL()); err == nil {
		host = u.Hostname()
		if u.Path != "" {
			path = u.Path
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx = ctx
	m.dispatchLocked(Event{
		Kind:       EventLoad,
		GoogleForm: utils.IsGoogleForm(host, path),
		Decision:   m.eval.CheckDomain(ctx, host),
	})
}

// Mutations delivers one observer batch.
func (m *Monitor) Mutations(batch []domain.MutationKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchLocked(Event{Kind: EventMutation, Mutations: batch})
}

// Stop cancels pending timers without rendering, for a page that navigated away.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.state.Phase = PhaseBlocked
	m.closeDone()
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the page is blocked or the monitor is stopped.
func (m *Monitor) Done() <-chan struct{} { return m.done }

func (m *Monitor) fire(id TimerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, id)
	m.dispatchLocked(Event{Kind: EventTimerFired, Timer: id})
}

// dispatchLocked applies ev and every event its effects produce. Caller holds m.mu.
func (m *Monitor) dispatchLocked(ev Event) {
	queue := []Event{ev}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		var effs []Effect
		m.state, effs = Transition(m.state, next, m.timing)
		for _, eff := range effs {
			if out, ok := m.apply(eff); ok {
				queue = append(queue, out)
			}
		}
	}
	if m.state.Blocked() {
		m.closeDone()
	}
}

// apply performs one effect. An Evaluate effect yields the Evaluated event.
func (m *Monitor) apply(eff Effect) (Event, bool) {
	switch eff.Kind {
	case EffectSchedule:
		id := eff.Timer
		m.timers[id] = m.clock.AfterFunc(eff.After, func() { m.fire(id) })
	case EffectCancel:
		if t, ok := m.timers[eff.Timer]; ok {
			t.Stop()
			delete(m.timers, eff.Timer)
		}
	case EffectObserve:
		if err := m.page.Observe(m.ctx); err != nil {
			m.logger.Warn(map[string]any{"error": err}, "mutation observer install failed")
		}
	case EffectDisconnect:
		if err := m.page.Disconnect(m.ctx); err != nil {
			m.logger.Warn(map[string]any{"error": err}, "mutation observer disconnect failed")
		}
	case EffectRender:
		if err := m.page.RenderBlock(m.ctx, eff.Decision); err != nil {
			m.logger.Error(map[string]any{"error": err}, "block render failed")
		}
	case EffectEvaluate:
		return Event{Kind: EventEvaluated, Decision: m.evaluate()}, true
	}
	return Event{}, false
}

// evaluate snapshots the page and runs the pipeline. A failed snapshot counts
// as not blocked.
func (m *Monitor) evaluate() domain.BlockDecision {
	doc, err := m.page.Snapshot(m.ctx)
	if err != nil {
		m.logger.Warn(map[string]any{"error": err}, "page snapshot failed")
		return domain.EmptyDecision()
	}
	return m.eval.Evaluate(m.ctx, doc)
}

func (m *Monitor) closeDone() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}
