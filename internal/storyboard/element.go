package storyboard

import (
	"fmt"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
)

// UnlimitedExecutions disables the repeat bound of an element.
const UnlimitedExecutions = -1

// Element is the lifecycle state machine shared by every storyboard node.
// It is not safe for concurrent use; the scheduler owns each element.
type Element struct {
	elementType      ElementType
	name             string
	state            State
	transition       Transition
	numExecutions    int
	maxNumExecutions int
	changedThisTick  bool
	observer         StateObserver
}

// NewElement creates an element in standby.
// maxNumExecutions is only enforced for maneuver groups and events;
// pass UnlimitedExecutions to disable the bound.
func NewElement(elementType ElementType, name string, maxNumExecutions int) *Element {
	e := makeElement(elementType, name, maxNumExecutions)
	return &e
}

func makeElement(elementType ElementType, name string, maxNumExecutions int) Element {
	return Element{
		elementType:      elementType,
		name:             name,
		state:            StateStandby,
		transition:       TransitionUndefined,
		maxNumExecutions: maxNumExecutions,
	}
}

func (e *Element) Name() string { return e.name }
func (e *Element) Type() ElementType { return e.elementType }
func (e *Element) State() State { return e.state }
func (e *Element) Transition() Transition { return e.transition }
func (e *Element) NumExecutions() int { return e.numExecutions }
func (e *Element) MaxNumExecutions() int { return e.maxNumExecutions }
func (e *Element) ChangedThisTick() bool { return e.changedThisTick }
func (e *Element) Observer() StateObserver { return e.observer }
func (e *Element) SetObserver(o StateObserver) { e.observer = o }

// SetMaxNumExecutions changes the repeat bound. Injected actions use 1.
func (e *Element) SetMaxNumExecutions(n int) {
	e.maxNumExecutions = n
}

// IsActive reports whether the element currently drives behavior.
// An element that just started is active in the same tick, and one
// leaving through End or Stop is not, even while state still reads running.
func (e *Element) IsActive() bool {
	return e.state == StateRunning &&
		e.transition != TransitionEnd && e.transition != TransitionStop
}

// IsTriggable reports whether Start would be accepted.
func (e *Element) IsTriggable() bool {
	return e.state == StateStandby
}

// IsComplete is false for the base element. Actions override it.
func (e *Element) IsComplete() bool {
	return false
}

// Start moves a standby element to running and counts the execution.
func (e *Element) Start(simTime, dt float64) {
	_ = simTime
	_ = dt
	if e.state != StateStandby {
		e.invalid("Start", StateRunning.String())
		return
	}
	e.transition = TransitionStart
	e.numExecutions++
	e.setState(StateRunning)
}

// End finishes the current execution. Elements may end straight from
// standby, which is how instantaneous actions complete.
func (e *Element) End(simTime float64) {
	_ = simTime
	if e.state != StateRunning && e.state != StateStandby {
		e.invalid("End", StateStandby.String()+" or "+StateComplete.String())
		return
	}
	e.transition = TransitionEnd

	if !e.elementType.repeatable() {
		e.setState(StateComplete)
		return
	}

	if e.maxNumExecutions != UnlimitedExecutions && e.numExecutions >= e.maxNumExecutions {
		suffix := ""
		if e.numExecutions > 1 {
			suffix = "s"
		}
		events.Emit("info", "element.exhausted",
			fmt.Sprintf("%s complete after %d execution%s", e.name, e.numExecutions, suffix),
			map[string]interface{}{
				"element":        e.name,
				"type":           e.elementType.String(),
				"num_executions": e.numExecutions,
			})
		e.setState(StateComplete)
		return
	}
	e.setState(StateStandby)
}

// Stop aborts the element. The repeat bound is not consulted.
func (e *Element) Stop() {
	if e.state != StateStandby && e.state != StateRunning {
		e.invalid("Stop", StateComplete.String())
		return
	}
	e.transition = TransitionStop
	e.setState(StateComplete)
}

// Standby returns the element to idle. Calling it on a standby element
// records a skip transition and still notifies the observer.
func (e *Element) Standby() {
	switch e.state {
	case StateStandby:
		e.transition = TransitionSkip
	case StateRunning:
		e.transition = TransitionEnd
	default:
		e.invalid("Standby", StateStandby.String())
		return
	}
	e.setState(StateStandby)
}

// Reset restores the post-construction lifecycle state.
func (e *Element) Reset() {
	e.state = StateStandby
	e.transition = TransitionUndefined
	e.numExecutions = 0
	e.changedThisTick = false
}

// UpdateState closes the tick. A transition set during this tick survives
// into the next one; otherwise it is cleared.
func (e *Element) UpdateState() {
	if !e.changedThisTick {
		e.transition = TransitionUndefined
	}
	e.changedThisTick = false
}

func (e *Element) setState(state State) {
	e.state = state
	e.changedThisTick = true
	if e.observer != nil {
		e.observer.OnStateChange(e.name, e.elementType, state)
	}
}

func (e *Element) invalid(op, target string) {
	events.Emit("warn", "element.invalid_transition",
		fmt.Sprintf("%s Invalid %s transition request from %s to %s", e.name, op, e.state, target),
		map[string]interface{}{
			"element": e.name,
			"type":    e.elementType.String(),
			"op":      op,
			"from":    e.state.String(),
			"to":      target,
		})
}
