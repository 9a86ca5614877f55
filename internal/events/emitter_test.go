package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEmitRejectsUnknownEvent(t *testing.T) {
	Clear()

	if _, err := Emit("info", "node.started", "", nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if len(Snapshot()) != 0 {
		t.Errorf("unknown event should not be buffered, got %d events", len(Snapshot()))
	}
}

func TestEmitReturnsJSON(t *testing.T) {
	Clear()

	b, err := Emit("warn", "element.invalid_transition", "bad request", map[string]interface{}{
		"element": "ego_speed",
		"from":    "COMPLETE",
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if e.Level != "warn" || e.Name != "element.invalid_transition" || e.Message != "bad request" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Fields["element"] != "ego_speed" {
		t.Errorf("expected element field, got %v", e.Fields["element"])
	}
}

func TestTotalCountSurvivesWraparound(t *testing.T) {
	Clear()

	for i := 0; i < 300; i++ {
		Emit("info", "element.state_changed", "", nil)
	}

	if got := TotalCount(); got != 300 {
		t.Errorf("expected total 300, got %d", got)
	}
	if got := len(Snapshot()); got != 256 {
		t.Errorf("expected buffer capped at 256, got %d", got)
	}
}

func TestSetOutputWritesLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Emit("info", "player.started", "", map[string]interface{}{"step_dt": 0.05})
	Emit("info", "player.quit", "", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"event":"player.started"`) {
		t.Errorf("unexpected first line: %s", lines[0])
	}
}

func TestSessionID(t *testing.T) {
	SetSessionID("abc")
	defer SetSessionID("")

	if SessionID() != "abc" {
		t.Errorf("expected session id abc, got %q", SessionID())
	}
}
