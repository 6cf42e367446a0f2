// Package monitor drives re-evaluation of a live page: a settle delay after
// load, debounced evaluations on DOM mutations, a bounded poll on Google
// Forms pages, and a terminal latch once a page is blocked.
package monitor

import (
	"fmt"
	"time"

	"github.com/haukened/pageguard/internal/guard/domain"
)

// Phase is the lifecycle position of one page load.
type Phase uint8

const (
	PhaseUnloaded Phase = iota
	PhaseInitialized
	PhaseIdle
	PhaseEvaluating
	PhaseBlocked
)

func (p Phase) String() string {
	switch p {
	case PhaseUnloaded:
		return "unloaded"
	case PhaseInitialized:
		return "initialized"
	case PhaseIdle:
		return "idle"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// TimerKind names what a scheduled timer is for.
type TimerKind uint8

const (
	TimerSettle TimerKind = iota + 1
	TimerDebounce
	TimerPoll
	TimerBudget
)

func (k TimerKind) String() string {
	switch k {
	case TimerSettle:
		return "settle"
	case TimerDebounce:
		return "debounce"
	case TimerPoll:
		return "poll"
	case TimerBudget:
		return "budget"
	default:
		return fmt.Sprintf("TimerKind(%d)", k)
	}
}

// TimerID identifies one scheduled timer. Seq is unique per page load, so a
// fired timer that no longer matches the state is stale.
type TimerID struct {
	Seq  uint64
	Kind TimerKind
}

// Timing holds the delays used by the state machine.
type Timing struct {
	Settle      time.Duration
	FormsSettle time.Duration
	FormsPoll   time.Duration
	FormsBudget time.Duration
	Debounce    time.Duration
}

// DefaultTiming returns the delays used when none are configured.
func DefaultTiming() Timing {
	return Timing{
		Settle:      time.Second,
		FormsSettle: 2 * time.Second,
		FormsPoll:   time.Second,
		FormsBudget: 30 * time.Second,
		Debounce:    500 * time.Millisecond,
	}
}

// State is the value owned by one page load. The zero value is Unloaded.
type State struct {
	Phase       Phase
	GoogleForm  bool
	Observing   bool
	Evaluations int
	Decision    domain.BlockDecision

	seq      uint64
	settle   TimerID
	debounce TimerID
	poll     TimerID
	budget   TimerID
}

// Blocked reports whether the latch has fired.
func (s State) Blocked() bool { return s.Phase == PhaseBlocked }

// Pending returns the timers the state is waiting on.
func (s State) Pending() []TimerID {
	var out []TimerID
	for _, id := range []TimerID{s.settle, s.debounce, s.poll, s.budget} {
		if id.Seq != 0 {
			out = append(out, id)
		}
	}
	return out
}

// EventKind enumerates the inputs of Transition.
type EventKind uint8

const (
	EventLoad EventKind = iota + 1
	EventMutation
	EventTimerFired
	EventEvaluated
)

// Event is one input to Transition.
//   - Load: GoogleForm selects the forms schedule; Decision is the load-time domain check
//   - Mutation: Mutations is the batch delivered by the observer
//   - TimerFired: Timer identifies the timer
//   - Evaluated: Decision is the pipeline result
type Event struct {
	Kind       EventKind
	GoogleForm bool
	Mutations  []domain.MutationKind
	Timer      TimerID
	Decision   domain.BlockDecision
}

// EffectKind enumerates the outputs of Transition.
type EffectKind uint8

const (
	EffectSchedule EffectKind = iota + 1
	EffectCancel
	EffectEvaluate
	EffectObserve
	EffectDisconnect
	EffectRender
)

func (k EffectKind) String() string {
	switch k {
	case EffectSchedule:
		return "schedule"
	case EffectCancel:
		return "cancel"
	case EffectEvaluate:
		return "evaluate"
	case EffectObserve:
		return "observe"
	case EffectDisconnect:
		return "disconnect"
	case EffectRender:
		return "render"
	default:
		return fmt.Sprintf("EffectKind(%d)", k)
	}
}

// Effect is one side effect the driver must perform, in order.
type Effect struct {
	Kind     EffectKind
	Timer    TimerID
	After    time.Duration
	Decision domain.BlockDecision
}

// Transition is the pure step function of the re-evaluation loop.
func Transition(s State, ev Event, t Timing) (State, []Effect) {
	if s.Phase == PhaseBlocked {
		return s, nil
	}
	switch ev.Kind {
	case EventLoad:
		return onLoad(s, ev, t)
	case EventMutation:
		return onMutation(s, ev, t)
	case EventTimerFired:
		return onTimer(s, ev, t)
	case EventEvaluated:
		return onEvaluated(s, ev)
	}
	return s, nil
}

func onLoad(s State, ev Event, t Timing) (State, []Effect) {
	if s.Phase != PhaseUnloaded {
		return s, nil
	}
	s.Phase = PhaseInitialized
	s.GoogleForm = ev.GoogleForm
	if ev.Decision.Blocked {
		return block(s, ev.Decision)
	}
	delay := t.Settle
	if s.GoogleForm {
		delay = t.FormsSettle
	}
	eff := schedule(&s, TimerSettle, delay)
	return s, []Effect{eff}
}

func onMutation(s State, ev Event, t Timing) (State, []Effect) {
	if !s.Observing || !triggers(ev.Mutations) {
		return s, nil
	}
	var effs []Effect
	if s.debounce.Seq != 0 {
		effs = append(effs, Effect{Kind: EffectCancel, Timer: s.debounce})
	}
	effs = append(effs, schedule(&s, TimerDebounce, t.Debounce))
	return s, effs
}

func onTimer(s State, ev Event, t Timing) (State, []Effect) {
	id := ev.Timer
	if id.Seq == 0 {
		return s, nil
	}
	switch id {
	case s.settle:
		s.settle = TimerID{}
		s.Observing = true
		effs := []Effect{{Kind: EffectObserve}}
		if s.GoogleForm {
			effs = append(effs,
				schedule(&s, TimerPoll, t.FormsPoll),
				schedule(&s, TimerBudget, t.FormsBudget))
		}
		effs = append(effs, evaluate(&s))
		return s, effs
	case s.debounce:
		s.debounce = TimerID{}
		eval := evaluate(&s)
		return s, []Effect{eval}
	case s.poll:
		next := schedule(&s, TimerPoll, t.FormsPoll)
		eval := evaluate(&s)
		return s, []Effect{next, eval}
	case s.budget:
		s.budget = TimerID{}
		if s.poll.Seq == 0 {
			return s, nil
		}
		cancel := Effect{Kind: EffectCancel, Timer: s.poll}
		s.poll = TimerID{}
		return s, []Effect{cancel}
	}
	// stale
	return s, nil
}

func onEvaluated(s State, ev Event) (State, []Effect) {
	if s.Phase != PhaseEvaluating {
		return s, nil
	}
	if ev.Decision.Blocked {
		return block(s, ev.Decision)
	}
	s.Phase = PhaseIdle
	return s, nil
}

// block latches the state: pending timers are cancelled, the observer is
// disconnected and the decision is rendered once.
func block(s State, d domain.BlockDecision) (State, []Effect) {
	var effs []Effect
	for _, id := range s.Pending() {
		effs = append(effs, Effect{Kind: EffectCancel, Timer: id})
	}
	if s.Observing {
		effs = append(effs, Effect{Kind: EffectDisconnect})
	}
	effs = append(effs, Effect{Kind: EffectRender, Decision: d})

	s.settle, s.debounce, s.poll, s.budget = TimerID{}, TimerID{}, TimerID{}, TimerID{}
	s.Observing = false
	s.Phase = PhaseBlocked
	s.Decision = d
	return s, effs
}

// schedule issues a new timer id and records it as the pending timer of its kind.
func schedule(s *State, kind TimerKind, after time.Duration) Effect {
	s.seq++
	id := TimerID{Seq: s.seq, Kind: kind}
	switch kind {
	case TimerSettle:
		s.settle = id
	case TimerDebounce:
		s.debounce = id
	case TimerPoll:
		s.poll = id
	case TimerBudget:
		s.budget = id
	}
	return Effect{Kind: EffectSchedule, Timer: id, After: after}
}

func evaluate(s *State) Effect {
	s.Phase = PhaseEvaluating
	s.Evaluations++
	return Effect{Kind: EffectEvaluate}
}

func triggers(batch []domain.MutationKind) bool {
	for _, k := range batch {
		if k.TriggersEvaluation() {
			return true
		}
	}
	return false
}
