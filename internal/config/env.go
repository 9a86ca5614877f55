package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings that come from the environment rather than
// player.yaml.
type Env struct {
	ConfigPath string `env:"SCENARIO_CONFIG" envDefault:"player.yaml"`
	MQTTURL    string `env:"MQTT_URL" envDefault:"tcp://localhost:1883"`
	MQTTUser   string `env:"MQTT_USERNAME"`
	// Postgres persistence is skipped when disabled.
	PostgresEnabled bool `env:"SCENARIO_POSTGRES" envDefault:"false"`
	MQTTEnabled     bool `env:"SCENARIO_MQTT" envDefault:"true"`
	// Tracing is off unless an OTLP/HTTP endpoint is given.
	OTelEndpoint string `env:"SCENARIO_OTEL_ENDPOINT"`
	TLSCert      string `env:"SCENARIO_TLS_CERT"`
	TLSKey       string `env:"SCENARIO_TLS_KEY"`

	AlertWebhookURL    string        `env:"SCENARIO_ALERT_WEBHOOK_URL"`
	MQTTAlertDelay     time.Duration `env:"SCENARIO_MQTT_ALERT_DELAY" envDefault:"30s"`
	PostgresAlertDelay time.Duration `env:"SCENARIO_POSTGRES_ALERT_DELAY" envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
