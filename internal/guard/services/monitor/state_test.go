package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/pageguard/internal/guard/domain"
)

var blocked = domain.BlockDecision{Blocked: true, Reason: domain.ReasonKeyword}

func kinds(effs []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effs))
	for _, e := range effs {
		out = append(out, e.Kind)
	}
	return out
}

func loaded(t *testing.T, forms bool) (State, TimerID) {
	t.Helper()
	s, effs := Transition(State{}, Event{Kind: EventLoad, GoogleForm: forms}, DefaultTiming())
	require.Len(t, effs, 1)
	require.Equal(t, EffectSchedule, effs[0].Kind)
	return s, effs[0].Timer
}

func TestTransition_LoadSchedulesSettle(t *testing.T) {
	tm := DefaultTiming()
	s, effs := Transition(State{}, Event{Kind: EventLoad}, tm)
	assert.Equal(t, PhaseInitialized, s.Phase)
	require.Len(t, effs, 1)
	assert.Equal(t, tm.Settle, effs[0].After)
	assert.Equal(t, TimerSettle, effs[0].Timer.Kind)

	_, effs = Transition(State{}, Event{Kind: EventLoad, GoogleForm: true}, tm)
	assert.Equal(t, tm.FormsSettle, effs[0].After)

	// a second load on the same state is ignored
	s2, effs := Transition(s, Event{Kind: EventLoad}, tm)
	assert.Empty(t, effs)
	assert.Equal(t, s, s2)
}

func TestTransition_LoadDomainBlocked(t *testing.T) {
	d := domain.BlockDecision{Blocked: true, Reason: domain.ReasonDomain}
	s, effs := Transition(State{}, Event{Kind: EventLoad, Decision: d}, DefaultTiming())
	assert.True(t, s.Blocked())
	assert.Equal(t, []EffectKind{EffectRender}, kinds(effs))
	assert.Equal(t, d, effs[0].Decision)
	assert.Zero(t, s.Evaluations)
}

func TestTransition_SettleObservesAndEvaluates(t *testing.T) {
	s, settle := loaded(t, false)
	s, effs := Transition(s, Event{Kind: EventTimerFired, Timer: settle}, DefaultTiming())
	assert.Equal(t, []EffectKind{EffectObserve, EffectEvaluate}, kinds(effs))
	assert.True(t, s.Observing)
	assert.Equal(t, PhaseEvaluating, s.Phase)

	s, effs = Transition(s, Event{Kind: EventEvaluated}, DefaultTiming())
	assert.Empty(t, effs)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestTransition_MutationsBeforeObservingIgnored(t *testing.T) {
	s, _ := loaded(t, false)
	_, effs := Transition(s, Event{Kind: EventMutation, Mutations: []domain.MutationKind{domain.MutationChildList}}, DefaultTiming())
	assert.Empty(t, effs)
}

func TestTransition_DebounceResets(t *testing.T) {
	tm := DefaultTiming()
	s, settle := loaded(t, false)
	s, _ = Transition(s, Event{Kind: EventTimerFired, Timer: settle}, tm)
	s, _ = Transition(s, Event{Kind: EventEvaluated}, tm)

	batch := []domain.MutationKind{domain.MutationCharacterData}
	s, effs := Transition(s, Event{Kind: EventMutation, Mutations: batch}, tm)
	require.Equal(t, []EffectKind{EffectSchedule}, kinds(effs))
	first := effs[0].Timer
	assert.Equal(t, tm.Debounce, effs[0].After)

	s, effs = Transition(s, Event{Kind: EventMutation, Mutations: batch}, tm)
	require.Equal(t, []EffectKind{EffectCancel, EffectSchedule}, kinds(effs))
	assert.Equal(t, first, effs[0].Timer)
	second := effs[1].Timer

	// the replaced timer is stale
	s, effs = Transition(s, Event{Kind: EventTimerFired, Timer: first}, tm)
	assert.Empty(t, effs)

	s, effs = Transition(s, Event{Kind: EventTimerFired, Timer: second}, tm)
	assert.Equal(t, []EffectKind{EffectEvaluate}, kinds(effs))
	assert.Equal(t, 2, s.Evaluations)
}

func TestTransition_AttributeMutationsDoNotTrigger(t *testing.T) {
	s, settle := loaded(t, false)
	s, _ = Transition(s, Event{Kind: EventTimerFired, Timer: settle}, DefaultTiming())
	s, _ = Transition(s, Event{Kind: EventEvaluated}, DefaultTiming())
	_, effs := Transition(s, Event{Kind: EventMutation, Mutations: []domain.MutationKind{domain.MutationAttributes}}, DefaultTiming())
	assert.Empty(t, effs)
}

func TestTransition_GoogleFormsPollAndBudget(t *testing.T) {
	tm := DefaultTiming()
	s, settle := loaded(t, true)
	s, effs := Transition(s, Event{Kind: EventTimerFired, Timer: settle}, tm)
	require.Equal(t, []EffectKind{EffectObserve, EffectSchedule, EffectSchedule, EffectEvaluate}, kinds(effs))
	poll, budget := effs[1].Timer, effs[2].Timer
	assert.Equal(t, TimerPoll, poll.Kind)
	assert.Equal(t, tm.FormsPoll, effs[1].After)
	assert.Equal(t, TimerBudget, budget.Kind)
	assert.Equal(t, tm.FormsBudget, effs[2].After)
	s, _ = Transition(s, Event{Kind: EventEvaluated}, tm)

	s, effs = Transition(s, Event{Kind: EventTimerFired, Timer: poll}, tm)
	require.Equal(t, []EffectKind{EffectSchedule, EffectEvaluate}, kinds(effs))
	nextPoll := effs[0].Timer
	s, _ = Transition(s, Event{Kind: EventEvaluated}, tm)

	s, effs = Transition(s, Event{Kind: EventTimerFired, Timer: budget}, tm)
	require.Equal(t, []EffectKind{EffectCancel}, kinds(effs))
	assert.Equal(t, nextPoll, effs[0].Timer)
	assert.Empty(t, s.Pending())
	assert.True(t, s.Observing)
}

func TestTransition_BlockLatches(t *testing.T) {
	tm := DefaultTiming()
	s, settle := loaded(t, true)
	s, _ = Transition(s, Event{Kind: EventTimerFired, Timer: settle}, tm)
	pending := s.Pending()
	require.Len(t, pending, 2)

	s, effs := Transition(s, Event{Kind: EventEvaluated, Decision: blocked}, tm)
	assert.Equal(t, []EffectKind{EffectCancel, EffectCancel, EffectDisconnect, EffectRender}, kinds(effs))
	assert.True(t, s.Blocked())
	assert.False(t, s.Observing)
	assert.Equal(t, blocked, s.Decision)

	for _, ev := range []Event{
		{Kind: EventMutation, Mutations: []domain.MutationKind{domain.MutationChildList}},
		{Kind: EventTimerFired, Timer: pending[0]},
		{Kind: EventEvaluated, Decision: blocked},
		{Kind: EventLoad},
	} {
		next, effs := Transition(s, ev, tm)
		assert.Empty(t, effs)
		assert.Equal(t, s, next)
	}
}

func TestTransition_EvaluatedOutsideEvaluatingIgnored(t *testing.T) {
	s, _ := loaded(t, false)
	next, effs := Transition(s, Event{Kind: EventEvaluated, Decision: blocked}, DefaultTiming())
	assert.Empty(t, effs)
	assert.False(t, next.Blocked())
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "blocked", PhaseBlocked.String())
	assert.Equal(t, "debounce", TimerDebounce.String())
	assert.Equal(t, "render", EffectRender.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}
