package storyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
)

type stateChange struct {
	name  string
	kind  ElementType
	state State
}

type recordingObserver struct {
	calls []stateChange
}

func (r *recordingObserver) OnStateChange(name string, elementType ElementType, state State) {
	r.calls = append(r.calls, stateChange{name, elementType, state})
}

func hasEvent(name string) bool {
	for _, e := range events.Snapshot() {
		if e.Name == name {
			return true
		}
	}
	return false
}

func TestNewElement(t *testing.T) {
	e := NewElement(ElementTypeManeuverGroup, "mg1", 3)

	assert.Equal(t, "mg1", e.Name())
	assert.Equal(t, ElementTypeManeuverGroup, e.Type())
	assert.Equal(t, StateStandby, e.State())
	assert.Equal(t, TransitionUndefined, e.Transition())
	assert.Equal(t, 0, e.NumExecutions())
	assert.Equal(t, 3, e.MaxNumExecutions())
	assert.False(t, e.ChangedThisTick())
	assert.Nil(t, e.Observer())
	assert.True(t, e.IsTriggable())
	assert.False(t, e.IsActive())
	assert.False(t, e.IsComplete())
}

func TestStartMakesActiveSameTick(t *testing.T) {
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.Start(0, 0.05)

	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, TransitionStart, e.Transition())
	assert.Equal(t, 1, e.NumExecutions())
	assert.True(t, e.ChangedThisTick())
	assert.True(t, e.IsActive())
	assert.False(t, e.IsTriggable())
}

func TestManeuverGroupRepeatBound(t *testing.T) {
	events.Clear()
	e := NewElement(ElementTypeManeuverGroup, "mg", 2)

	e.Start(0, 0.1)
	assert.Equal(t, StateRunning, e.State())
	e.End(1)
	assert.Equal(t, StateStandby, e.State())
	assert.Equal(t, 1, e.NumExecutions())

	e.Start(2, 0.1)
	assert.Equal(t, StateRunning, e.State())
	e.End(3)
	assert.Equal(t, StateComplete, e.State())
	assert.Equal(t, 2, e.NumExecutions())
	assert.True(t, hasEvent("element.exhausted"))
}

func TestUnlimitedEventReArms(t *testing.T) {
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	for i := 0; i < 5; i++ {
		e.Start(float64(i), 0.1)
		e.End(float64(i))
		require.Equal(t, StateStandby, e.State())
	}
	assert.Equal(t, 5, e.NumExecutions())
}

func TestNonRepeatableKindsCompleteOnEnd(t *testing.T) {
	kinds := []ElementType{
		ElementTypeStoryBoard,
		ElementTypeStory,
		ElementTypeAct,
		ElementTypeManeuver,
		ElementTypeAction,
	}
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			e := NewElement(k, "x", 5)
			e.Start(0, 0.1)
			e.End(0)
			assert.Equal(t, StateComplete, e.State())
			assert.Equal(t, TransitionEnd, e.Transition())
		})
	}
}

func TestEndFromStandby(t *testing.T) {
	e := NewElement(ElementTypeAction, "instant", UnlimitedExecutions)
	e.End(0)

	assert.Equal(t, StateComplete, e.State())
	assert.Equal(t, TransitionEnd, e.Transition())
	assert.Equal(t, 0, e.NumExecutions())
}

func TestEndFromCompleteIsRejected(t *testing.T) {
	events.Clear()
	e := NewElement(ElementTypeAction, "a", UnlimitedExecutions)
	e.Stop()
	e.End(0)

	assert.Equal(t, StateComplete, e.State())
	assert.Equal(t, TransitionStop, e.Transition())
	assert.True(t, hasEvent("element.invalid_transition"))
}

func TestStop(t *testing.T) {
	t.Run("from running", func(t *testing.T) {
		e := NewElement(ElementTypeManeuverGroup, "mg", 10)
		e.Start(0, 0.1)
		e.Stop()
		assert.Equal(t, StateComplete, e.State())
		assert.Equal(t, TransitionStop, e.Transition())
		assert.False(t, e.IsActive())
	})
	t.Run("from standby", func(t *testing.T) {
		e := NewElement(ElementTypeEvent, "ev", 10)
		e.Stop()
		assert.Equal(t, StateComplete, e.State())
	})
	t.Run("from complete", func(t *testing.T) {
		events.Clear()
		e := NewElement(ElementTypeEvent, "ev", 10)
		e.Stop()
		e.Stop()
		assert.Equal(t, StateComplete, e.State())
		assert.True(t, hasEvent("element.invalid_transition"))
	})
}

func TestStartFromCompleteIsRejected(t *testing.T) {
	events.Clear()
	obs := &recordingObserver{}
	e := NewElement(ElementTypeAction, "done", UnlimitedExecutions)
	e.End(0)
	e.SetObserver(obs)

	e.Start(1, 0.1)

	assert.Equal(t, StateComplete, e.State())
	assert.Equal(t, 0, e.NumExecutions())
	assert.Empty(t, obs.calls)

	snap := events.Snapshot()
	require.NotEmpty(t, snap)
	last := snap[len(snap)-1]
	assert.Equal(t, "element.invalid_transition", last.Name)
	assert.Equal(t, "warn", last.Level)
	assert.Equal(t, "done", last.Fields["element"])
	assert.Equal(t, "Start", last.Fields["op"])
	assert.Equal(t, "COMPLETE", last.Fields["from"])
	assert.Contains(t, last.Message, "done Invalid Start transition request from COMPLETE")
}

func TestStartWhileRunningIsRejected(t *testing.T) {
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.Start(0, 0.1)
	e.Start(0.1, 0.1)

	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 1, e.NumExecutions())
}

func TestIsActiveFalseWhileLeaving(t *testing.T) {
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.Start(0, 0.1)
	e.End(0.1)
	assert.False(t, e.IsActive())

	e.Start(0.2, 0.1)
	assert.True(t, e.IsActive())
	e.Standby()
	assert.Equal(t, TransitionEnd, e.Transition())
	assert.False(t, e.IsActive())
}

func TestStandbyOnStandbyRecordsSkip(t *testing.T) {
	obs := &recordingObserver{}
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.SetObserver(obs)

	e.Standby()

	assert.Equal(t, StateStandby, e.State())
	assert.Equal(t, TransitionSkip, e.Transition())
	assert.True(t, e.ChangedThisTick())
	require.Len(t, obs.calls, 1)
	assert.Equal(t, StateStandby, obs.calls[0].state)
}

func TestStandbyFromCompleteIsRejected(t *testing.T) {
	events.Clear()
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.Stop()
	e.Standby()
	assert.Equal(t, StateComplete, e.State())
	assert.True(t, hasEvent("element.invalid_transition"))
}

func TestReset(t *testing.T) {
	obs := &recordingObserver{}
	e := NewElement(ElementTypeManeuverGroup, "mg", 1)
	e.SetObserver(obs)
	e.Start(0, 0.1)
	e.End(0.1)
	require.Equal(t, StateComplete, e.State())
	calls := len(obs.calls)

	e.Reset()

	assert.Equal(t, StateStandby, e.State())
	assert.Equal(t, TransitionUndefined, e.Transition())
	assert.Equal(t, 0, e.NumExecutions())
	assert.False(t, e.ChangedThisTick())
	assert.Equal(t, 1, e.MaxNumExecutions())
	assert.Len(t, obs.calls, calls, "reset does not notify")

	e.Start(1, 0.1)
	assert.Equal(t, StateRunning, e.State())
}

func TestObserverNotifiedOnEveryCommit(t *testing.T) {
	obs := &recordingObserver{}
	e := NewElement(ElementTypeEvent, "ev", 2)
	e.SetObserver(obs)

	e.Start(0, 0.1)
	e.End(0.1)
	e.Start(0.2, 0.1)
	e.End(0.3)

	want := []stateChange{
		{"ev", ElementTypeEvent, StateRunning},
		{"ev", ElementTypeEvent, StateStandby},
		{"ev", ElementTypeEvent, StateRunning},
		{"ev", ElementTypeEvent, StateComplete},
	}
	assert.Equal(t, want, obs.calls)
}

func TestUpdateState(t *testing.T) {
	e := NewElement(ElementTypeEvent, "ev", UnlimitedExecutions)
	e.Start(0, 0.1)

	e.UpdateState()
	assert.Equal(t, TransitionStart, e.Transition(), "transition survives the tick it was set in")
	assert.False(t, e.ChangedThisTick())

	e.UpdateState()
	assert.Equal(t, TransitionUndefined, e.Transition())
	assert.Equal(t, StateRunning, e.State())
	assert.True(t, e.IsActive())
}

func TestMultiObserver(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	var fnCalls int
	e := NewElement(ElementTypeAct, "act", UnlimitedExecutions)
	e.SetObserver(MultiObserver{a, nil, b, ObserverFunc(func(string, ElementType, State) { fnCalls++ })})

	e.Start(0, 0.1)

	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
	assert.Equal(t, 1, fnCalls)
}

func TestEmitObserver(t *testing.T) {
	events.Clear()
	e := NewElement(ElementTypeStory, "story", UnlimitedExecutions)
	e.SetObserver(EmitObserver{})
	e.Start(0, 0.1)

	snap := events.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "element.state_changed", snap[0].Name)
	assert.Equal(t, "story", snap[0].Fields["element"])
	assert.Equal(t, "STORY", snap[0].Fields["type"])
	assert.Equal(t, "RUNNING", snap[0].Fields["state"])
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "MANEUVER_GROUP", ElementTypeManeuverGroup.String())
	assert.Equal(t, "UNDEFINED_ELEMENT_TYPE", ElementType(42).String())
	assert.Equal(t, "STANDBY", StateStandby.String())
	assert.Equal(t, "START_TRANSITION", TransitionStart.String())
	assert.Equal(t, 7, int(ElementTypeAction))
	assert.Equal(t, 3, int(StateComplete))
}
