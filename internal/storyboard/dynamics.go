package storyboard

import "math"

// DynamicsShape is the profile used to move a value toward its target.
type DynamicsShape int

const (
	ShapeLinear DynamicsShape = iota
	ShapeCubic
	ShapeSinusoidal
	ShapeStep
)

func (s DynamicsShape) String() string {
	switch s {
	case ShapeLinear:
		return "linear"
	case ShapeCubic:
		return "cubic"
	case ShapeSinusoidal:
		return "sinusoidal"
	case ShapeStep:
		return "step"
	default:
		return "unknown"
	}
}

// ParseDynamicsShape maps a wire name to a shape.
func ParseDynamicsShape(s string) (DynamicsShape, bool) {
	switch s {
	case "linear", "":
		return ShapeLinear, true
	case "cubic":
		return ShapeCubic, true
	case "sinusoidal":
		return ShapeSinusoidal, true
	case "step":
		return ShapeStep, true
	}
	return ShapeLinear, false
}

// DynamicsDimension says what the transition value measures.
type DynamicsDimension int

const (
	DimensionTime DynamicsDimension = iota
	DimensionDistance
	DimensionRate
)

func (d DynamicsDimension) String() string {
	switch d {
	case DimensionTime:
		return "time"
	case DimensionDistance:
		return "distance"
	case DimensionRate:
		return "rate"
	default:
		return "unknown"
	}
}

// ParseDynamicsDimension maps a wire name to a dimension.
func ParseDynamicsDimension(s string) (DynamicsDimension, bool) {
	switch s {
	case "time", "":
		return DimensionTime, true
	case "distance":
		return DimensionDistance, true
	case "rate":
		return DimensionRate, true
	}
	return DimensionTime, false
}

// TransitionDynamics describes how an action reaches its target:
// over Value seconds, over Value meters, or at Value units per second.
type TransitionDynamics struct {
	Shape     DynamicsShape
	Dimension DynamicsDimension
	Value     float64
}

// Evaluate maps progress p in [0,1] to the fraction of the change applied.
func (d TransitionDynamics) Evaluate(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	switch d.Shape {
	case ShapeCubic:
		return p * p * (3 - 2*p)
	case ShapeSinusoidal:
		return 0.5 - 0.5*math.Cos(math.Pi*p)
	case ShapeStep:
		return 1
	default:
		return p
	}
}

// ramp tracks the progress of one transition between two values.
type ramp struct {
	dynamics      TransitionDynamics
	from, to      float64
	elapsed       float64
	startOdometer float64
}

func (r *ramp) begin(d TransitionDynamics, from, to, odometer float64) {
	*r = ramp{dynamics: d, from: from, to: to, startOdometer: odometer}
}

// progress returns how far along the transition is, in [0,1].
func (r *ramp) progress(odometer float64) float64 {
	if r.dynamics.Shape == ShapeStep || r.from == r.to {
		return 1
	}
	switch r.dynamics.Dimension {
	case DimensionDistance:
		if r.dynamics.Value <= 0 {
			return 1
		}
		return (odometer - r.startOdometer) / r.dynamics.Value
	case DimensionRate:
		if r.dynamics.Value <= 0 {
			return 1
		}
		return r.elapsed / (math.Abs(r.to-r.from) / r.dynamics.Value)
	default:
		if r.dynamics.Value <= 0 {
			return 1
		}
		return r.elapsed / r.dynamics.Value
	}
}

// advance moves the ramp forward by dt and returns the current value and
// whether the target has been reached.
func (r *ramp) advance(dt, odometer float64) (float64, bool) {
	r.elapsed += dt
	p := r.progress(odometer)
	if p >= 1 {
		return r.to, true
	}
	return r.from + (r.to-r.from)*r.dynamics.Evaluate(p), false
}
