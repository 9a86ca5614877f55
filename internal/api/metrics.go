package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds process-level values for the /metrics endpoint.
type MetricsState struct {
	mu           sync.RWMutex
	startTime    time.Time
	scenarioName string
}

// InitMetrics records the process start time. Call once at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetScenarioName sets the scenario label on every metric.
func SetScenarioName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.scenarioName = name
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler writes metrics in the Prometheus text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metricsState.mu.RLock()
	startTime := metricsState.startTime
	scenario := metricsState.scenarioName
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	playerReady := readiness.playerReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	var st struct {
		simTime  float64
		frames   int64
		pending  int
		injected int
	}
	if controller != nil {
		s := controller.Status()
		st.simTime, st.frames, st.pending, st.injected = s.SimTime, s.Frames, s.Pending, s.Injected
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	labels := fmt.Sprintf(`scenario="%s",instance="%s",version="%s"`, scenario, hostname, version.Version)
	writeMetric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("scenario_uptime_seconds", "gauge",
		"Number of seconds since the player process started", time.Since(startTime).Seconds())
	writeMetric("scenario_player_ready", "gauge",
		"Whether the player loop is running (1) or not (0)", boolGauge(playerReady))
	writeMetric("scenario_sim_time_seconds", "gauge",
		"Current simulation time", st.simTime)
	writeMetric("scenario_frames_total", "counter",
		"Frames stepped in the current session", st.frames)
	writeMetric("scenario_actions_pending", "gauge",
		"Actions not yet complete", st.pending)
	writeMetric("scenario_injected_actions", "gauge",
		"Injected actions still ongoing", st.injected)
	writeMetric("scenario_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("scenario_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected))
	writeMetric("scenario_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected))
	writeMetric("scenario_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount())
}
