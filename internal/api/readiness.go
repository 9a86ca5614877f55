package api

import (
	"net/http"
	"strings"
	"sync"
)

type readinessState struct {
	mu                sync.RWMutex
	playerReady       bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{}

// CheckStatus is the result for one dependency.
type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckStatus `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

// SetPlayerReady marks the player loop as running.
func SetPlayerReady(ready bool) {
	readiness.mu.Lock()
	readiness.playerReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records the broker connection. An optional dependency that
// is down does not fail readiness.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetPostgresState records the event store connection.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
	readiness.mu.Unlock()
}

func dependencyCheck(connected, optional bool) CheckStatus {
	switch {
	case connected:
		return CheckStatus{Status: "ok", Optional: optional}
	case optional:
		return CheckStatus{Status: "unavailable", Optional: true}
	default:
		return CheckStatus{Status: "not_ready"}
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	playerReady := readiness.playerReady
	mqttCheck := dependencyCheck(readiness.mqttConnected, readiness.mqttOptional)
	pgCheck := dependencyCheck(readiness.postgresConnected, readiness.postgresOptional)
	readiness.mu.RUnlock()

	resp := ReadinessResponse{
		Ready:  true,
		Checks: map[string]CheckStatus{"mqtt": mqttCheck, "postgres": pgCheck},
	}

	var reasons []string
	if playerReady {
		resp.Checks["player"] = CheckStatus{Status: "ok"}
	} else {
		resp.Checks["player"] = CheckStatus{Status: "not_ready"}
		reasons = append(reasons, "player not running")
	}
	if mqttCheck.Status == "not_ready" {
		reasons = append(reasons, "mqtt not connected")
	}
	if pgCheck.Status == "not_ready" {
		reasons = append(reasons, "postgres not connected")
	}

	status := http.StatusOK
	if len(reasons) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
