package player

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

var (
	// ErrDuplicateAction is returned when an action of the same kind is
	// already ongoing (for private actions: on the same entity).
	ErrDuplicateAction = errors.New("action of same type already ongoing")
	// ErrUnknownEntity is returned when an injection targets an id that
	// is not registered.
	ErrUnknownEntity = errors.New("unknown entity")
)

type entityBound interface {
	Entity() storyboard.Entity
}

// Injector holds actions added from outside the storyboard while the
// scenario is running.
type Injector struct {
	mu      sync.Mutex
	actions []storyboard.Action
}

// NewInjector creates an empty injector.
func NewInjector() *Injector {
	return &Injector{}
}

// Add queues an action. It is started on the next frame.
func (in *Injector) Add(a storyboard.Action) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	for _, cur := range in.actions {
		if cur.IsComplete() || cur.TypeName() != a.TypeName() {
			continue
		}

		fields := map[string]interface{}{
			"action":      a.Name(),
			"action_type": a.TypeName(),
		}
		if a.BaseType() == storyboard.BaseTypePrivate {
			ea, eb := entityOf(cur), entityOf(a)
			if ea == nil || eb == nil || ea.ID() != eb.ID() {
				continue
			}
			fields["entity_id"] = eb.ID()
			fields["entity"] = eb.Name()
		}

		events.Emit("warn", "injector.rejected",
			fmt.Sprintf("%s already ongoing, skipping %s", a.TypeName(), a.Name()), fields)
		return fmt.Errorf("%w: %s", ErrDuplicateAction, a.TypeName())
	}

	in.actions = append(in.actions, a)
	events.Emit("info", "injector.added", "", map[string]interface{}{
		"action":      a.Name(),
		"action_type": a.TypeName(),
	})
	return nil
}

// Step drops completed actions and returns how many were removed.
func (in *Injector) Step() int {
	in.mu.Lock()
	defer in.mu.Unlock()

	kept := in.actions[:0]
	removed := 0
	for _, a := range in.actions {
		if a.IsComplete() {
			events.Emit("info", "injector.finished",
				fmt.Sprintf("injected action %s finished", a.Name()),
				map[string]interface{}{"action": a.Name(), "action_type": a.TypeName()})
			removed++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(in.actions); i++ {
		in.actions[i] = nil
	}
	in.actions = kept
	return removed
}

// Actions returns a copy of the queued actions.
func (in *Injector) Actions() []storyboard.Action {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]storyboard.Action(nil), in.actions...)
}

// Len returns the number of queued actions.
func (in *Injector) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.actions)
}

// Clear drops every queued action.
func (in *Injector) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.actions = nil
}

func entityOf(a storyboard.Action) storyboard.Entity {
	if b, ok := a.(entityBound); ok {
		return b.Entity()
	}
	return nil
}
