package entities

import "sync"

// Object is the minimal kinematic record a private action steers. Real
// vehicle dynamics are supplied elsewhere; Advance only integrates the
// odometer so distance-based transitions can make progress.
type Object struct {
	mu            sync.RWMutex
	id            int
	name          string
	speed         float64
	lateralOffset float64
	laneID        int
	laneWidth     float64
	odometer      float64
}

// NewObject creates an object at rest in the given lane.
func NewObject(id int, name string, laneID int, laneWidth float64) *Object {
	return &Object{
		id:        id,
		name:      name,
		laneID:    laneID,
		laneWidth: laneWidth,
	}
}

func (o *Object) ID() int      { return o.id }
func (o *Object) Name() string { return o.name }

func (o *Object) Speed() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.speed
}

func (o *Object) SetSpeed(v float64) {
	o.mu.Lock()
	o.speed = v
	o.mu.Unlock()
}

func (o *Object) LateralOffset() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lateralOffset
}

func (o *Object) SetLateralOffset(v float64) {
	o.mu.Lock()
	o.lateralOffset = v
	o.mu.Unlock()
}

func (o *Object) LaneID() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.laneID
}

func (o *Object) SetLaneID(id int) {
	o.mu.Lock()
	o.laneID = id
	o.mu.Unlock()
}

func (o *Object) LaneWidth() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.laneWidth
}

func (o *Object) Odometer() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.odometer
}

// Advance integrates the odometer over dt seconds.
func (o *Object) Advance(dt float64) {
	o.mu.Lock()
	o.odometer += o.speed * dt
	o.mu.Unlock()
}

// Snapshot is a point-in-time copy of an object, safe to serialize.
type Snapshot struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Speed         float64 `json:"speed"`
	LateralOffset float64 `json:"lateral_offset"`
	LaneID        int     `json:"lane_id"`
	Odometer      float64 `json:"odometer"`
}

func (o *Object) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Snapshot{
		ID:            o.id,
		Name:          o.name,
		Speed:         o.speed,
		LateralOffset: o.lateralOffset,
		LaneID:        o.laneID,
		Odometer:      o.odometer,
	}
}
