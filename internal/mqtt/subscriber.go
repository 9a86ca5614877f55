package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
)

// Subscriber is the part of Client the command subscriber needs.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// PayloadHandler consumes one inbound message. A returned error is
// reported as injector.rejected and the message is dropped.
type PayloadHandler func(topic string, payload []byte) error

// CommandSubscriber manages subscriptions to operator command topics.
// It ensures idempotent subscription handling across reconnects.
type CommandSubscriber struct {
	mu         sync.RWMutex
	client     Subscriber
	handlers   map[string]PayloadHandler
	subscribed map[string]bool
}

// NewCommandSubscriber creates a new command subscriber.
func NewCommandSubscriber(client Subscriber) *CommandSubscriber {
	return &CommandSubscriber{
		client:     client,
		handlers:   make(map[string]PayloadHandler),
		subscribed: make(map[string]bool),
	}
}

// Handle subscribes handler to topic if not already subscribed.
// Calling it again for the same topic is a no-op.
func (s *CommandSubscriber) Handle(topic string, handler PayloadHandler) error {
	s.mu.Lock()
	s.handlers[topic] = handler
	if s.subscribed[topic] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.client.Subscribe(topic, s.createHandler(topic)); err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[topic] = true
	s.mu.Unlock()
	return nil
}

// Resubscribe clears the tracking and subscribes every known handler again.
// Register it with Client.OnConnect.
func (s *CommandSubscriber) Resubscribe() {
	s.mu.Lock()
	s.subscribed = make(map[string]bool)
	handlers := make(map[string]PayloadHandler, len(s.handlers))
	for t, h := range s.handlers {
		handlers[t] = h
	}
	s.mu.Unlock()

	for topic, h := range handlers {
		if err := s.Handle(topic, h); err != nil {
			events.Emit("error", "system.error", "failed to resubscribe", map[string]interface{}{
				"topic": topic,
				"error": err.Error(),
			})
		}
	}
}

func (s *CommandSubscriber) createHandler(topic string) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		s.mu.RLock()
		h := s.handlers[topic]
		s.mu.RUnlock()
		if h == nil {
			return
		}
		if err := h(msg.Topic(), msg.Payload()); err != nil {
			events.Emit("warn", "injector.rejected", err.Error(), map[string]interface{}{
				"topic":   msg.Topic(),
				"payload": string(msg.Payload()),
			})
		}
	}
}

// IsSubscribed returns true if the topic is already subscribed.
func (s *CommandSubscriber) IsSubscribed(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed[topic]
}

// SubscribedTopics returns a list of all subscribed topics.
func (s *CommandSubscriber) SubscribedTopics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, 0, len(s.subscribed))
	for topic := range s.subscribed {
		topics = append(topics, topic)
	}
	return topics
}
