package storyboard

// ElementType is the kind of node in the storyboard hierarchy.
// The numeric values are part of the external state-change API.
type ElementType int

const (
	ElementTypeUndefined     ElementType = 0
	ElementTypeStoryBoard    ElementType = 1
	ElementTypeStory         ElementType = 2
	ElementTypeAct           ElementType = 3
	ElementTypeManeuverGroup ElementType = 4
	ElementTypeManeuver      ElementType = 5
	ElementTypeEvent         ElementType = 6
	ElementTypeAction        ElementType = 7
)

func (t ElementType) String() string {
	switch t {
	case ElementTypeStoryBoard:
		return "STORY_BOARD"
	case ElementTypeStory:
		return "STORY"
	case ElementTypeAct:
		return "ACT"
	case ElementTypeManeuverGroup:
		return "MANEUVER_GROUP"
	case ElementTypeManeuver:
		return "MANEUVER"
	case ElementTypeEvent:
		return "EVENT"
	case ElementTypeAction:
		return "ACTION"
	default:
		return "UNDEFINED_ELEMENT_TYPE"
	}
}

// repeatable reports whether the kind re-arms to standby between executions.
func (t ElementType) repeatable() bool {
	return t == ElementTypeManeuverGroup || t == ElementTypeEvent
}

// State is the lifecycle state of an element.
type State int

const (
	StateUndefined State = 0
	StateStandby   State = 1
	StateRunning   State = 2
	StateComplete  State = 3
)

func (s State) String() string {
	switch s {
	case StateStandby:
		return "STANDBY"
	case StateRunning:
		return "RUNNING"
	case StateComplete:
		return "COMPLETE"
	default:
		return "UNDEFINED_ELEMENT_STATE"
	}
}

// Transition records how the most recent state change happened.
// It is cleared by the first UpdateState after a tick with no change.
type Transition int

const (
	TransitionUndefined Transition = iota
	TransitionStart
	TransitionEnd
	TransitionStop
	TransitionSkip
)

func (t Transition) String() string {
	switch t {
	case TransitionStart:
		return "START_TRANSITION"
	case TransitionEnd:
		return "END_TRANSITION"
	case TransitionStop:
		return "STOP_TRANSITION"
	case TransitionSkip:
		return "SKIP_TRANSITION"
	default:
		return "UNDEFINED_ELEMENT_TRANSITION"
	}
}
