package storyboard

import "github.com/AaronLay10/ScenarioEngine/internal/events"

// UserDefinedAction carries an opaque payload for an external executor.
// It has no per-tick effect of its own.
type UserDefinedAction struct {
	ActionBase
	PayloadType    string
	PayloadContent string
}

// NewUserDefinedAction creates a user-defined action in standby.
func NewUserDefinedAction(name, payloadType, payloadContent string) *UserDefinedAction {
	return &UserDefinedAction{
		ActionBase:     NewActionBase(BaseTypeUserDefined, name),
		PayloadType:    payloadType,
		PayloadContent: payloadContent,
	}
}

// Copy returns an independent action with the same name and payload and a
// fresh lifecycle. The observer is not carried over.
func (a *UserDefinedAction) Copy() *UserDefinedAction {
	c := NewUserDefinedAction(a.name, a.PayloadType, a.PayloadContent)
	c.maxNumExecutions = a.maxNumExecutions
	return c
}

func (a *UserDefinedAction) TypeName() string {
	return "UserDefinedAction"
}

// Start records the payload before delegating to the element lifecycle.
func (a *UserDefinedAction) Start(simTime, dt float64) {
	events.Emit("info", "action.started", "", map[string]interface{}{
		"action":          a.name,
		"action_type":     a.TypeName(),
		"payload_type":    a.PayloadType,
		"payload_content": a.PayloadContent,
		"sim_time":        simTime,
	})
	a.ActionBase.Start(simTime, dt)
}

func (a *UserDefinedAction) Step(simTime, dt float64) {}
