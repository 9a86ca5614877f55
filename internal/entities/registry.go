package entities

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AaronLay10/ScenarioEngine/internal/config"
)

// Registry maps entity ids to the objects actions can target.
type Registry struct {
	mu      sync.RWMutex
	objects map[int]*Object
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[int]*Object),
	}
}

// FromConfig builds a registry seeded from player.yaml entities.
func FromConfig(cfgs []config.EntityConfig) *Registry {
	r := NewRegistry()
	for _, c := range cfgs {
		obj := NewObject(c.ID, c.Name, c.LaneID, c.LaneWidthOrDefault())
		obj.SetSpeed(c.Speed)
		r.Register(obj)
	}
	return r
}

// Register adds or replaces an object.
func (r *Registry) Register(obj *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[obj.ID()] = obj
}

// Unregister removes an object.
func (r *Registry) Unregister(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, id)
}

// Get returns an object by id, or nil if not found.
func (r *Registry) Get(id int) *Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.objects[id]
}

// Lookup is like Get but reports a missing id as an error.
func (r *Registry) Lookup(id int) (*Object, error) {
	if obj := r.Get(id); obj != nil {
		return obj, nil
	}
	return nil, fmt.Errorf("entity not registered: %d", id)
}

// Exists returns true if the id is registered.
func (r *Registry) Exists(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.objects[id]
	return ok
}

// All returns the registered objects ordered by id.
func (r *Registry) All() []*Object {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Object, 0, len(r.objects))
	for _, obj := range r.objects {
		result = append(result, obj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Snapshots returns copies of every object ordered by id.
func (r *Registry) Snapshots() []Snapshot {
	objs := r.All()
	out := make([]Snapshot, 0, len(objs))
	for _, obj := range objs {
		out = append(out, obj.Snapshot())
	}
	return out
}

// Advance integrates every object over dt seconds.
func (r *Registry) Advance(dt float64) {
	for _, obj := range r.All() {
		obj.Advance(dt)
	}
}

// Clear removes all objects from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = make(map[int]*Object)
}
