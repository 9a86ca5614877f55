package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

// Message types accepted on the inject topic and the operator API.
const (
	MsgSpeed      = "speed"
	MsgLaneChange = "lane_change"
	MsgLaneOffset = "lane_offset"
	MsgPlay       = "play"
	MsgPause      = "pause"
	MsgStep       = "step"
	MsgStepDT     = "step_dt"
	MsgQuit       = "quit"
	MsgRestart    = "restart"
)

// ErrUnknownMessage is returned by DecodeMessage for unsupported types.
var ErrUnknownMessage = errors.New("unknown message type")

// Message is one injection or control request.
type Message struct {
	Type string `json:"type"`

	// EntityID selects the target of speed, lane_change and lane_offset.
	EntityID int `json:"id"`

	Speed float64 `json:"speed,omitempty"`
	// Mode is "absolute" (default) or "relative" for lane_change.
	Mode          string  `json:"mode,omitempty"`
	Target        int     `json:"target,omitempty"`
	Offset        float64 `json:"offset,omitempty"`
	MaxLateralAcc float64 `json:"max_lateral_acc,omitempty"`

	Shape     string  `json:"shape,omitempty"`
	Dimension string  `json:"dimension,omitempty"`
	Value     float64 `json:"value,omitempty"`

	DT float64 `json:"dt,omitempty"`
}

// DecodeMessage parses and validates a JSON message.
func DecodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks the type and the fields it needs.
func (m Message) Validate() error {
	switch m.Type {
	case MsgSpeed, MsgLaneChange, MsgLaneOffset:
		if _, ok := storyboard.ParseDynamicsShape(m.Shape); !ok {
			return fmt.Errorf("unsupported transition shape: %q", m.Shape)
		}
		if _, ok := storyboard.ParseDynamicsDimension(m.Dimension); !ok {
			return fmt.Errorf("unsupported transition dimension: %q", m.Dimension)
		}
		if m.Type == MsgLaneChange && m.Mode != "" && m.Mode != "absolute" && m.Mode != "relative" {
			return fmt.Errorf("unsupported lane change mode: %q", m.Mode)
		}
		if m.Type == MsgLaneOffset && m.MaxLateralAcc < 0 {
			return fmt.Errorf("max_lateral_acc must not be negative")
		}
	case MsgStepDT:
		if m.DT <= 0 {
			return fmt.Errorf("step_dt requires dt > 0")
		}
	case MsgPlay, MsgPause, MsgStep, MsgQuit, MsgRestart:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return nil
}

// Dynamics returns the transition described by the message.
func (m Message) Dynamics() storyboard.TransitionDynamics {
	shape, _ := storyboard.ParseDynamicsShape(m.Shape)
	dim, _ := storyboard.ParseDynamicsDimension(m.Dimension)
	return storyboard.TransitionDynamics{Shape: shape, Dimension: dim, Value: m.Value}
}

// HandleMessage applies a decoded message to the player.
func (p *Player) HandleMessage(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	switch m.Type {
	case MsgSpeed, MsgLaneChange, MsgLaneOffset:
		return p.inject(ctx, m)
	case MsgPlay:
		p.SetState(StatePlaying)
	case MsgPause:
		p.SetState(StatePaused)
	case MsgStep:
		p.StepFrame(ctx, p.opts.StepDT)
	case MsgStepDT:
		p.StepFrame(ctx, m.DT)
	case MsgQuit:
		p.Quit()
	case MsgRestart:
		p.Restart()
	}
	return nil
}

func (p *Player) inject(ctx context.Context, m Message) error {
	_, span := p.tracer.Start(ctx, "player.inject", trace.WithAttributes(
		attribute.String("type", m.Type),
		attribute.Int("entity_id", m.EntityID),
	))
	defer span.End()

	obj, err := p.opts.Entities.Lookup(m.EntityID)
	if err != nil {
		events.Emit("warn", "injector.unknown", fmt.Sprintf("no entity with id %d", m.EntityID), map[string]interface{}{
			"type":      m.Type,
			"entity_id": m.EntityID,
		})
		err = fmt.Errorf("%w: %d", ErrUnknownEntity, m.EntityID)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var a storyboard.Action
	switch m.Type {
	case MsgSpeed:
		a = storyboard.NewSpeedAction("SpeedAction", obj, m.Speed, m.Dynamics())
	case MsgLaneChange:
		a = storyboard.NewLaneChangeAction("LaneChangeAction", obj, m.Target, m.Mode == "relative", m.Dynamics())
	case MsgLaneOffset:
		a = storyboard.NewLaneOffsetAction("LaneOffsetAction", obj, m.Offset, m.MaxLateralAcc, m.Dynamics().Shape)
	}

	if err := p.Inject(a); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
