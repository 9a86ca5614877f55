package storyboard

import "github.com/AaronLay10/ScenarioEngine/internal/events"

// StateObserver is notified synchronously of every committed state change.
// Implementations must not call lifecycle operations on the element that
// is notifying them.
type StateObserver interface {
	OnStateChange(name string, elementType ElementType, state State)
}

// ObserverFunc adapts a plain function to StateObserver.
type ObserverFunc func(name string, elementType ElementType, state State)

func (f ObserverFunc) OnStateChange(name string, elementType ElementType, state State) {
	f(name, elementType, state)
}

// EmitObserver publishes state changes as element.state_changed events.
type EmitObserver struct{}

func (EmitObserver) OnStateChange(name string, elementType ElementType, state State) {
	events.Emit("info", "element.state_changed", "", map[string]interface{}{
		"element": name,
		"type":    elementType.String(),
		"state":   state.String(),
	})
}

// MultiObserver fans a notification out to several observers in order.
type MultiObserver []StateObserver

func (m MultiObserver) OnStateChange(name string, elementType ElementType, state State) {
	for _, o := range m {
		if o != nil {
			o.OnStateChange(name, elementType, state)
		}
	}
}
