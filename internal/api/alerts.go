package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
)

// AlertPayload is the JSON body posted to the webhook.
type AlertPayload struct {
	Scenario  string                 `json:"scenario"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertConfig controls outage alerts. A dependency must stay down for its
// delay before an alert goes out.
type AlertConfig struct {
	WebhookURL    string
	MQTTDelay     time.Duration
	PostgresDelay time.Duration
}

// outage tracks one dependency between checks.
type outage struct {
	event    string
	severity string
	label    string
	delay    time.Duration
	since    time.Time
	alerted  bool
}

// check returns the alert to send, if any, for the current state.
func (o *outage) check(connected bool, now time.Time) *AlertPayload {
	if connected {
		recovered := o.alerted
		o.since = time.Time{}
		o.alerted = false
		if !recovered {
			return nil
		}
		return &AlertPayload{
			Event:    o.event,
			Severity: SeverityInfo,
			Message:  o.label + " connection restored",
			Details:  map[string]interface{}{"recovered_at": now.UTC().Format(time.RFC3339)},
		}
	}

	if o.since.IsZero() {
		o.since = now
	}
	down := now.Sub(o.since)
	if o.alerted || down < o.delay {
		return nil
	}
	o.alerted = true
	return &AlertPayload{
		Event:    o.event,
		Severity: o.severity,
		Message:  o.label + " unavailable",
		Details: map[string]interface{}{
			"disconnected_since":   o.since.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(down.Seconds()),
		},
	}
}

type alerter struct {
	mu       sync.Mutex
	webhook  string
	mqtt     outage
	postgres outage
	client   *http.Client
}

var alerts *alerter

// InitAlerts configures outage alerts. Without a webhook URL alerts are
// only logged.
func InitAlerts(cfg AlertConfig) {
	if cfg.MQTTDelay <= 0 {
		cfg.MQTTDelay = 30 * time.Second
	}
	if cfg.PostgresDelay <= 0 {
		cfg.PostgresDelay = 5 * time.Second
	}
	alerts = &alerter{
		webhook:  cfg.WebhookURL,
		mqtt:     outage{event: AlertMQTTDisconnected, severity: SeverityWarning, label: "MQTT broker", delay: cfg.MQTTDelay},
		postgres: outage{event: AlertPostgresUnavailable, severity: SeverityCritical, label: "PostgreSQL", delay: cfg.PostgresDelay},
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	if cfg.WebhookURL != "" {
		log.Printf("Alerts enabled: webhook configured (mqtt_delay=%s, pg_delay=%s)", cfg.MQTTDelay, cfg.PostgresDelay)
	}
}

// CheckDependencies compares the current connection states against the
// outage delays and sends any resulting alerts.
func CheckDependencies(mqttConnected, postgresConnected bool) {
	if alerts == nil {
		return
	}
	now := time.Now()

	alerts.mu.Lock()
	pending := []*AlertPayload{
		alerts.mqtt.check(mqttConnected, now),
		alerts.postgres.check(postgresConnected, now),
	}
	alerts.mu.Unlock()

	for _, p := range pending {
		if p != nil {
			alerts.send(*p)
		}
	}
}

func (a *alerter) send(p AlertPayload) {
	metricsState.mu.RLock()
	p.Scenario = metricsState.scenarioName
	metricsState.mu.RUnlock()
	if p.Scenario == "" {
		p.Scenario = "unknown"
	}
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if a.webhook == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", p.Event, p.Severity, p.Message, p.Details)
		return
	}

	body, err := json.Marshal(p)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}
	resp, err := a.client.Post(a.webhook, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// StartAlertMonitor checks the readiness state every interval until ctx
// is canceled.
func StartAlertMonitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				readiness.mu.RLock()
				mqttConnected := readiness.mqttConnected || readiness.mqttOptional
				postgresConnected := readiness.postgresConnected || readiness.postgresOptional
				readiness.mu.RUnlock()

				CheckDependencies(mqttConnected, postgresConnected)
			}
		}
	}()
}
