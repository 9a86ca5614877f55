package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

// Publisher is the part of Client the executor needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// CommandMessage is published for every user-defined action dispatched
// over MQTT.
type CommandMessage struct {
	Action      string `json:"action"`
	PayloadType string `json:"payload_type"`
	Content     string `json:"content"`
	SessionID   string `json:"session_id,omitempty"`
	Timestamp   string `json:"ts"`
}

// Executor hands user-defined action payloads to external consumers by
// publishing them under <prefix>/commands/<payload type>.
type Executor struct {
	pub    Publisher
	prefix string
}

// NewExecutor creates an executor publishing under topicPrefix.
func NewExecutor(pub Publisher, topicPrefix string) *Executor {
	return &Executor{pub: pub, prefix: strings.TrimSuffix(topicPrefix, "/")}
}

// Topic returns the command topic used for a payload type.
func (e *Executor) Topic(payloadType string) string {
	return e.prefix + "/commands/" + topicSegment(payloadType)
}

// Execute publishes the action payload.
func (e *Executor) Execute(ctx context.Context, a *storyboard.UserDefinedAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(CommandMessage{
		Action:      a.Name(),
		PayloadType: a.PayloadType,
		Content:     a.PayloadContent,
		SessionID:   events.SessionID(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	topic := e.Topic(a.PayloadType)
	if err := e.pub.Publish(topic, b); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// topicSegment keeps a payload type from escaping its topic level.
func topicSegment(s string) string {
	if s == "" {
		return "default"
	}
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
