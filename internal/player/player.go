package player

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AaronLay10/ScenarioEngine/internal/config"
	"github.com/AaronLay10/ScenarioEngine/internal/entities"
	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

const tracerName = "github.com/AaronLay10/ScenarioEngine/internal/player"

// PlayState is the run mode of the player.
type PlayState int

const (
	StatePlaying PlayState = iota
	StatePaused
	// StateStep runs frames only on explicit step requests.
	StateStep
)

func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStep:
		return "step"
	default:
		return "unknown"
	}
}

// Options configures a Player.
type Options struct {
	StepDT      float64
	Realtime    bool
	StartPaused bool
	// SessionID resumes an earlier session instead of starting a new one.
	SessionID string
	Observer  storyboard.StateObserver
	Executor  Executor
	Entities  *entities.Registry
	Tracer    trace.Tracer
}

// ElementStatus is the last committed state of one element.
type ElementStatus struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	State   string  `json:"state"`
	SimTime float64 `json:"sim_time"`
}

// Status is a point-in-time summary of the player.
type Status struct {
	SessionID string              `json:"session_id"`
	State     string              `json:"state"`
	SimTime   float64             `json:"sim_time"`
	Frames    int64               `json:"frames"`
	Pending   int                 `json:"pending"`
	Injected  int                 `json:"injected"`
	Entities  []entities.Snapshot `json:"entities"`
}

// scheduled is a configured action waiting for its start time or condition.
type scheduled struct {
	action    *storyboard.UserDefinedAction
	startTime float64
	cond      *Condition
	condErr   bool
}

// Player steps standalone and injected actions on a fixed time step.
// All lifecycle calls happen with mu held, so elements are only ever
// touched by one goroutine at a time.
type Player struct {
	mu       sync.Mutex
	opts     Options
	tracer   trace.Tracer
	observer storyboard.StateObserver

	state     PlayState
	simTime   float64
	frames    int64
	sessionID string

	scheduled []*scheduled
	actions   []storyboard.Action
	injector  *Injector
	elements  map[string]ElementStatus

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a player and starts (or resumes) a session.
func New(opts Options) *Player {
	if opts.StepDT <= 0 {
		opts.StepDT = 0.05
	}
	if opts.Entities == nil {
		opts.Entities = entities.NewRegistry()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	p := &Player{
		opts:     opts,
		tracer:   tracer,
		injector: NewInjector(),
		elements: make(map[string]ElementStatus),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	p.observer = storyboard.MultiObserver{storyboard.ObserverFunc(p.track), opts.Observer}
	if opts.StartPaused {
		p.state = StatePaused
	}

	if opts.SessionID != "" {
		p.sessionID = opts.SessionID
		events.SetSessionID(p.sessionID)
		events.Emit("info", "session.started", "session resumed", map[string]interface{}{
			"session_id": p.sessionID,
			"resumed":    true,
		})
	} else {
		p.newSession()
	}
	return p
}

func (p *Player) newSession() {
	p.sessionID = uuid.NewString()
	events.SetSessionID(p.sessionID)
	events.Emit("info", "session.started", "", map[string]interface{}{
		"session_id": p.sessionID,
	})
}

// track records committed state changes for Elements.
func (p *Player) track(name string, elementType storyboard.ElementType, state storyboard.State) {
	p.elements[name] = ElementStatus{
		Name:    name,
		Type:    elementType.String(),
		State:   state.String(),
		SimTime: p.simTime,
	}
}

// Entities returns the registry actions are bound to.
func (p *Player) Entities() *entities.Registry {
	return p.opts.Entities
}

// StepDT returns the fixed frame step.
func (p *Player) StepDT() float64 {
	return p.opts.StepDT
}

// SessionID returns the current session id.
func (p *Player) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// Schedule adds a user-defined action started once sim time reaches
// startTime, or when cond holds if cond is not nil.
func (p *Player) Schedule(a *storyboard.UserDefinedAction, startTime float64, cond *Condition) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a.SetObserver(p.observer)
	p.scheduled = append(p.scheduled, &scheduled{action: a, startTime: startTime, cond: cond})
	p.elements[a.Name()] = ElementStatus{
		Name:  a.Name(),
		Type:  a.Type().String(),
		State: a.State().String(),
	}
}

// LoadActions schedules the actions declared in player.yaml.
func (p *Player) LoadActions(cfgs []config.ActionConfig) error {
	for _, c := range cfgs {
		var cond *Condition
		if c.StartWhen != "" {
			var err error
			if cond, err = CompileCondition(c.StartWhen); err != nil {
				return fmt.Errorf("action %s: %w", c.Name, err)
			}
		}
		p.Schedule(storyboard.NewUserDefinedAction(c.Name, c.PayloadType, c.PayloadContent), c.StartTime, cond)
	}
	return nil
}

// AddAction adds a standalone action that starts on the next frame.
func (p *Player) AddAction(a storyboard.Action) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a.SetObserver(p.observer)
	p.actions = append(p.actions, a)
}

// Inject queues an injected action after duplicate checks.
func (p *Player) Inject(a storyboard.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a.SetMaxNumExecutions(1)
	a.SetObserver(p.observer)
	return p.injector.Add(a)
}

// Frame advances the scenario by dt regardless of play state.
func (p *Player) Frame(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame(context.Background(), dt)
}

func (p *Player) frame(ctx context.Context, dt float64) {
	ctx, span := p.tracer.Start(ctx, "player.frame", trace.WithAttributes(
		attribute.Float64("sim_time", p.simTime),
		attribute.Float64("dt", dt),
	))
	defer span.End()

	p.startDue()

	// standalone and injected actions start on the first frame they are seen
	others := append(append([]storyboard.Action(nil), p.actions...), p.injector.Actions()...)
	for _, a := range others {
		if a.IsTriggable() {
			a.Start(p.simTime, dt)
		}
	}

	live := others
	for _, s := range p.scheduled {
		if !s.action.IsComplete() {
			live = append(live, s.action)
		}
	}

	for _, a := range live {
		if !a.IsActive() {
			continue
		}
		a.Step(p.simTime, dt)
		// user-defined actions are instantaneous: hand off the payload and end
		if u, ok := a.(*storyboard.UserDefinedAction); ok && u.IsActive() {
			p.dispatch(ctx, u)
			u.End(p.simTime)
		}
	}

	for _, a := range live {
		a.UpdateState()
	}

	p.injector.Step()
	p.actions = pruneComplete(p.actions)

	p.opts.Entities.Advance(dt)
	p.simTime += dt
	p.frames++

	span.SetAttributes(attribute.Int("actions", len(live)))
}

func (p *Player) startDue() {
	var snaps []entities.Snapshot
	for _, s := range p.scheduled {
		if !s.action.IsTriggable() {
			continue
		}
		if s.cond == nil {
			if p.simTime+1e-9 < s.startTime {
				continue
			}
		} else {
			if snaps == nil {
				snaps = p.opts.Entities.Snapshots()
			}
			ok, err := s.cond.Eval(p.simTime, snaps)
			if err != nil {
				if !s.condErr {
					s.condErr = true
					events.Emit("error", "system.error", err.Error(), map[string]interface{}{
						"action":    s.action.Name(),
						"condition": s.cond.String(),
					})
				}
				continue
			}
			if !ok {
				continue
			}
		}
		s.action.Start(p.simTime, p.opts.StepDT)
	}
}

func (p *Player) dispatch(ctx context.Context, a *storyboard.UserDefinedAction) {
	if p.opts.Executor == nil {
		return
	}

	ctx, span := p.tracer.Start(ctx, "player.execute", trace.WithAttributes(
		attribute.String("action", a.Name()),
		attribute.String("payload_type", a.PayloadType),
	))
	defer span.End()

	fields := map[string]interface{}{
		"action":       a.Name(),
		"payload_type": a.PayloadType,
		"sim_time":     p.simTime,
	}
	if err := p.opts.Executor.Execute(ctx, a); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields["error"] = err.Error()
		events.Emit("error", "action.failed", err.Error(), fields)
		return
	}
	events.Emit("info", "action.executed", "", fields)
}

func pruneComplete(actions []storyboard.Action) []storyboard.Action {
	kept := actions[:0]
	for _, a := range actions {
		if !a.IsComplete() {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(actions); i++ {
		actions[i] = nil
	}
	return kept
}

// SetState changes the play state. Entering StateStep runs one frame.
func (p *Player) SetState(s PlayState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setState(context.Background(), s, p.opts.StepDT)
}

// StepFrame switches to step mode and runs a single frame of dt seconds.
func (p *Player) StepFrame(ctx context.Context, dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setState(ctx, StateStep, dt)
}

func (p *Player) setState(ctx context.Context, s PlayState, dt float64) {
	prev := p.state
	p.state = s

	switch s {
	case StatePlaying:
		if prev != StatePlaying {
			events.Emit("info", "player.resumed", "", map[string]interface{}{"sim_time": p.simTime})
			select {
			case p.wake <- struct{}{}:
			default:
			}
		}
	case StatePaused:
		if prev != StatePaused {
			events.Emit("info", "player.paused", "", map[string]interface{}{"sim_time": p.simTime})
		}
	case StateStep:
		p.frame(ctx, dt)
		events.Emit("info", "player.step", "", map[string]interface{}{
			"sim_time": p.simTime,
			"dt":       dt,
		})
	}
}

// State returns the current play state.
func (p *Player) State() PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SimTime returns the elapsed simulation time in seconds.
func (p *Player) SimTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.simTime
}

// Quit stops Run. It is safe to call more than once.
func (p *Player) Quit() {
	p.quitOnce.Do(func() {
		events.Emit("info", "player.quit", "", map[string]interface{}{"sim_time": p.SimTime()})
		close(p.quit)
	})
}

// Done is closed once Quit has been called.
func (p *Player) Done() <-chan struct{} {
	return p.quit
}

// Restart resets every scheduled action, drops standalone and injected
// actions, and begins a new session at sim time zero.
func (p *Player) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()

	events.Emit("info", "session.reset", "", map[string]interface{}{
		"session_id": p.sessionID,
		"sim_time":   p.simTime,
	})

	p.actions = nil
	p.injector.Clear()
	p.simTime = 0
	p.frames = 0
	p.elements = make(map[string]ElementStatus)
	for _, s := range p.scheduled {
		s.action.Reset()
		s.condErr = false
		p.elements[s.action.Name()] = ElementStatus{
			Name:  s.action.Name(),
			Type:  s.action.Type().String(),
			State: s.action.State().String(),
		}
	}
	p.newSession()
}

// Run drives frames until ctx is canceled or Quit is called. In realtime
// mode frames are paced by the wall clock; otherwise they run back to back.
func (p *Player) Run(ctx context.Context) error {
	events.Emit("info", "player.started", "", map[string]interface{}{
		"step_dt":    p.opts.StepDT,
		"realtime":   p.opts.Realtime,
		"session_id": p.SessionID(),
		"state":      p.State().String(),
	})

	var tick <-chan time.Time
	if p.opts.Realtime {
		ticker := time.NewTicker(time.Duration(p.opts.StepDT * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.quit:
				return nil
			case <-tick:
				p.tick(ctx)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return nil
		default:
		}
		if !p.tick(ctx) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.quit:
				return nil
			case <-p.wake:
			}
		}
	}
}

// tick runs one frame if playing and reports whether it did.
func (p *Player) tick(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return false
	}
	p.frame(ctx, p.opts.StepDT)
	return true
}

// Status returns a snapshot of the player.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := 0
	for _, s := range p.scheduled {
		if !s.action.IsComplete() {
			pending++
		}
	}
	return Status{
		SessionID: p.sessionID,
		State:     p.state.String(),
		SimTime:   p.simTime,
		Frames:    p.frames,
		Pending:   pending + len(p.actions),
		Injected:  p.injector.Len(),
		Entities:  p.opts.Entities.Snapshots(),
	}
}

// Elements returns the last known state of every element, ordered by name.
func (p *Player) Elements() []ElementStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ElementStatus, 0, len(p.elements))
	for _, e := range p.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
