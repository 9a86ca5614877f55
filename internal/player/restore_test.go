package player

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/ScenarioEngine/internal/config"
	"github.com/AaronLay10/ScenarioEngine/internal/storage/postgres"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

type fakeSource struct {
	rows []postgres.EventRow
	err  error
}

func (f *fakeSource) Query(limit int) ([]postgres.EventRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	// newest first, like the real store
	out := make([]postgres.EventRow, 0, len(f.rows))
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return out, nil
}

func row(event string, fields map[string]interface{}) postgres.EventRow {
	return postgres.EventRow{Timestamp: time.Now(), Level: "info", Event: event, Fields: fields}
}

func stateChanged(name, state string) postgres.EventRow {
	return row("element.state_changed", map[string]interface{}{
		"element": name,
		"type":    "ACTION",
		"state":   state,
	})
}

func TestRestoreFromEventsNilSource(t *testing.T) {
	state, count, err := RestoreFromEvents(nil, 100)
	assert.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, 0, count)
}

func TestRestoreFromEventsError(t *testing.T) {
	_, _, err := RestoreFromEvents(&fakeSource{err: errors.New("db down")}, 100)
	assert.Error(t, err)
}

func TestRestoreFromEventsLatestSession(t *testing.T) {
	src := &fakeSource{rows: []postgres.EventRow{
		row("session.started", map[string]interface{}{"session_id": "old"}),
		stateChanged("stale", "COMPLETE"),
		row("session.started", map[string]interface{}{"session_id": "s2"}),
		stateChanged("horn", "RUNNING"),
		stateChanged("horn", "COMPLETE"),
		stateChanged("lights", "RUNNING"),
		row("session.started", map[string]interface{}{"session_id": "s2", "resumed": true}),
	}}

	state, count, err := RestoreFromEvents(src, 0)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, 7, count)
	assert.Equal(t, "s2", state.SessionID)
	assert.Len(t, state.Elements, 2)
	assert.Equal(t, "COMPLETE", state.Elements["horn"].State)
	assert.Equal(t, "RUNNING", state.Elements["lights"].State)
	assert.NotContains(t, state.Elements, "stale")
}

func TestRestoreFromEventsReset(t *testing.T) {
	src := &fakeSource{rows: []postgres.EventRow{
		row("session.started", map[string]interface{}{"session_id": "s1"}),
		stateChanged("horn", "COMPLETE"),
		row("session.reset", map[string]interface{}{"session_id": "s1"}),
	}}

	state, count, err := RestoreFromEvents(src, 10)
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, 3, count)
}

func TestApplyRestoredState(t *testing.T) {
	exec := &recordingExecutor{}
	log := &stateLog{}
	p := newTestPlayer(t, exec, log)
	require.NoError(t, p.LoadActions([]config.ActionConfig{
		{Name: "horn", PayloadType: "x"},
		{Name: "lights", PayloadType: "x"},
	}))

	p.ApplyRestoredState(&RestoredState{
		SessionID: "s2",
		Elements: map[string]ElementStatus{
			"horn":   {Name: "horn", State: storyboard.StateComplete.String()},
			"lights": {Name: "lights", State: storyboard.StateRunning.String()},
		},
	})
	assert.Empty(t, log.changes, "restore does not notify")

	p.Frame(0.5)
	assert.Equal(t, []string{"lights"}, exec.Calls(), "completed actions are not run again")

	states := map[string]string{}
	for _, e := range p.Elements() {
		states[e.Name] = e.State
	}
	assert.Equal(t, "COMPLETE", states["horn"])
	assert.Equal(t, "COMPLETE", states["lights"])
}
