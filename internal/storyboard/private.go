package storyboard

import (
	"math"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
)

// Entity is the simulated object a private action controls. Its kinematics
// live outside this package; actions only read and set these values.
type Entity interface {
	ID() int
	Name() string
	Speed() float64
	SetSpeed(v float64)
	LateralOffset() float64
	SetLateralOffset(v float64)
	LaneID() int
	SetLaneID(id int)
	LaneWidth() float64
	Odometer() float64
}

// PrivateAction is the shared part of actions bound to a single entity.
type PrivateAction struct {
	ActionBase
	entity Entity
}

func newPrivateAction(name string, entity Entity) PrivateAction {
	return PrivateAction{
		ActionBase: NewActionBase(BaseTypePrivate, name),
		entity:     entity,
	}
}

// Entity returns the controlled object.
func (a *PrivateAction) Entity() Entity {
	return a.entity
}

func (a *PrivateAction) emitStart(typeName string, simTime float64, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["action"] = a.name
	fields["action_type"] = typeName
	fields["sim_time"] = simTime
	if a.entity != nil {
		fields["entity_id"] = a.entity.ID()
		fields["entity"] = a.entity.Name()
	}
	events.Emit("info", "action.started", "", fields)
}

// SpeedAction changes the longitudinal speed of an entity.
type SpeedAction struct {
	PrivateAction
	Dynamics    TransitionDynamics
	TargetSpeed float64
	ramp        ramp
}

// NewSpeedAction creates a speed action toward an absolute target speed.
func NewSpeedAction(name string, entity Entity, target float64, dynamics TransitionDynamics) *SpeedAction {
	return &SpeedAction{
		PrivateAction: newPrivateAction(name, entity),
		Dynamics:      dynamics,
		TargetSpeed:   target,
	}
}

func (a *SpeedAction) TypeName() string { return "SpeedAction" }

func (a *SpeedAction) Start(simTime, dt float64) {
	if a.IsTriggable() {
		a.ramp.begin(a.Dynamics, a.entity.Speed(), a.TargetSpeed, a.entity.Odometer())
		a.emitStart(a.TypeName(), simTime, map[string]interface{}{
			"target": a.TargetSpeed,
			"shape":  a.Dynamics.Shape.String(),
		})
	}
	a.ActionBase.Start(simTime, dt)
}

func (a *SpeedAction) Step(simTime, dt float64) {
	v, done := a.ramp.advance(dt, a.entity.Odometer())
	a.entity.SetSpeed(v)
	if done {
		a.End(simTime)
	}
}

// LaneOffsetAction moves an entity sideways within its lane.
type LaneOffsetAction struct {
	PrivateAction
	Dynamics TransitionDynamics
	Target   float64
	// MaxLateralAcc bounds the duration when positive.
	MaxLateralAcc float64
	ramp          ramp
}

// NewLaneOffsetAction creates a lane offset action toward an absolute offset.
func NewLaneOffsetAction(name string, entity Entity, target, maxLateralAcc float64, shape DynamicsShape) *LaneOffsetAction {
	return &LaneOffsetAction{
		PrivateAction: newPrivateAction(name, entity),
		Dynamics:      TransitionDynamics{Shape: shape, Dimension: DimensionTime},
		Target:        target,
		MaxLateralAcc: maxLateralAcc,
	}
}

func (a *LaneOffsetAction) TypeName() string { return "LaneOffsetAction" }

func (a *LaneOffsetAction) Start(simTime, dt float64) {
	if a.IsTriggable() {
		from := a.entity.LateralOffset()
		d := a.Dynamics
		if a.MaxLateralAcc > 0 {
			// peak acceleration of the cubic profile is 6*delta/T^2
			d.Dimension = DimensionTime
			d.Value = math.Sqrt(6 * math.Abs(a.Target-from) / a.MaxLateralAcc)
		}
		a.ramp.begin(d, from, a.Target, a.entity.Odometer())
		a.emitStart(a.TypeName(), simTime, map[string]interface{}{
			"target":          a.Target,
			"max_lateral_acc": a.MaxLateralAcc,
		})
	}
	a.ActionBase.Start(simTime, dt)
}

func (a *LaneOffsetAction) Step(simTime, dt float64) {
	v, done := a.ramp.advance(dt, a.entity.Odometer())
	a.entity.SetLateralOffset(v)
	if done {
		a.End(simTime)
	}
}

// LaneChangeAction moves an entity to another lane.
type LaneChangeAction struct {
	PrivateAction
	Dynamics TransitionDynamics
	// Target is a lane id, or a lane delta when Relative is set.
	Target   int
	Relative bool

	targetLane int
	ramp       ramp
}

// NewLaneChangeAction creates a lane change action.
func NewLaneChangeAction(name string, entity Entity, target int, relative bool, dynamics TransitionDynamics) *LaneChangeAction {
	return &LaneChangeAction{
		PrivateAction: newPrivateAction(name, entity),
		Dynamics:      dynamics,
		Target:        target,
		Relative:      relative,
	}
}

func (a *LaneChangeAction) TypeName() string { return "LaneChangeAction" }

// TargetLane is the lane id resolved at start.
func (a *LaneChangeAction) TargetLane() int { return a.targetLane }

func (a *LaneChangeAction) Start(simTime, dt float64) {
	if a.IsTriggable() {
		current := a.entity.LaneID()
		a.targetLane = a.Target
		if a.Relative {
			a.targetLane = current + a.Target
		}
		offset := float64(a.targetLane-current) * a.entity.LaneWidth()
		a.ramp.begin(a.Dynamics, a.entity.LateralOffset(), offset, a.entity.Odometer())
		a.emitStart(a.TypeName(), simTime, map[string]interface{}{
			"from_lane": current,
			"to_lane":   a.targetLane,
		})
	}
	a.ActionBase.Start(simTime, dt)
}

func (a *LaneChangeAction) Step(simTime, dt float64) {
	v, done := a.ramp.advance(dt, a.entity.Odometer())
	if !done {
		a.entity.SetLateralOffset(v)
		return
	}
	a.entity.SetLaneID(a.targetLane)
	a.entity.SetLateralOffset(0)
	a.End(simTime)
}
