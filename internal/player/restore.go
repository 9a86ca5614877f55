package player

import (
	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storage/postgres"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 1000

// EventSource is the query side of the event store.
type EventSource interface {
	Query(limit int) ([]postgres.EventRow, error)
}

// RestoredState is the minimal player state reconstructed from events.
type RestoredState struct {
	SessionID string
	Elements  map[string]ElementStatus
}

// RestoreFromEvents loads events and reconstructs the last committed state of
// each element in the most recent session. Returns nil if src is nil or no
// session was found.
func RestoreFromEvents(src EventSource, limit int) (*RestoredState, int, error) {
	if src == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := src.Query(limit)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Query returns newest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	var state *RestoredState
	for _, row := range rows {
		switch row.Event {
		case "session.started":
			id, _ := row.Fields["session_id"].(string)
			if resumed, _ := row.Fields["resumed"].(bool); resumed && state != nil && state.SessionID == id {
				continue
			}
			state = &RestoredState{SessionID: id, Elements: make(map[string]ElementStatus)}

		case "session.reset":
			state = nil

		case "element.state_changed":
			if state == nil {
				continue
			}
			name, ok := row.Fields["element"].(string)
			if !ok {
				continue
			}
			st := ElementStatus{Name: name}
			st.Type, _ = row.Fields["type"].(string)
			st.State, _ = row.Fields["state"].(string)
			state.Elements[name] = st
		}
	}

	return state, len(rows), nil
}

// ApplyRestoredState marks scheduled actions that already completed in the
// restored session as complete, without notifying observers or running
// their payloads again.
func (p *Player) ApplyRestoredState(state *RestoredState) {
	if state == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.scheduled {
		st, ok := state.Elements[s.action.Name()]
		if !ok || st.State != storyboard.StateComplete.String() {
			continue
		}
		if !s.action.IsTriggable() {
			continue
		}
		s.action.SetObserver(nil)
		s.action.End(p.simTime)
		s.action.SetObserver(p.observer)
		p.elements[s.action.Name()] = ElementStatus{
			Name:    s.action.Name(),
			Type:    s.action.Type().String(),
			State:   s.action.State().String(),
			SimTime: p.simTime,
		}
	}
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, scenarioID, sessionID string) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"restored":    restored,
		"scenario_id": scenarioID,
		"session_id":  sessionID,
	})
}
