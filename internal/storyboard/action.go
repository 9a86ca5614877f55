package storyboard

// BaseType classifies how an action was authored. It is informational
// only and never affects lifecycle behavior.
type BaseType int

const (
	BaseTypeGlobal BaseType = iota
	BaseTypeUserDefined
	BaseTypePrivate
)

func (b BaseType) String() string {
	switch b {
	case BaseTypeGlobal:
		return "GlobalAction"
	case BaseTypeUserDefined:
		return "UserDefinedAction"
	case BaseTypePrivate:
		return "PrivateAction"
	default:
		return "UnknownAction"
	}
}

// Action is a leaf element that affects the simulated world once per tick.
type Action interface {
	Name() string
	Type() ElementType
	State() State
	Transition() Transition
	NumExecutions() int
	ChangedThisTick() bool
	SetObserver(o StateObserver)
	SetMaxNumExecutions(n int)

	// BaseType and TypeName are used for telemetry naming.
	BaseType() BaseType
	TypeName() string

	Start(simTime, dt float64)
	// Step applies the action's effect. It is called once per tick while
	// IsActive is true and must only change lifecycle state through
	// End or Stop.
	Step(simTime, dt float64)
	End(simTime float64)
	Stop()
	Standby()
	Reset()
	UpdateState()

	IsActive() bool
	IsTriggable() bool
	IsComplete() bool
}

// ActionBase carries the lifecycle shared by all actions. Concrete actions
// embed it and supply Step.
type ActionBase struct {
	Element
	baseType BaseType
}

// NewActionBase creates the embedded part of an action.
func NewActionBase(baseType BaseType, name string) ActionBase {
	return ActionBase{
		Element:  makeElement(ElementTypeAction, name, UnlimitedExecutions),
		baseType: baseType,
	}
}

func (a *ActionBase) BaseType() BaseType {
	return a.baseType
}

// TypeName defaults to the base type name.
func (a *ActionBase) TypeName() string {
	return a.baseType.String()
}

// IsComplete is the leaf-level completion signal.
func (a *ActionBase) IsComplete() bool {
	return a.state == StateComplete
}
