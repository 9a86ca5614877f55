package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

// ErrNoExecutor is returned by ExecutorMux when nothing handles a payload type.
var ErrNoExecutor = errors.New("no executor for payload type")

// Executor interprets the opaque payload of a user-defined action.
type Executor interface {
	Execute(ctx context.Context, a *storyboard.UserDefinedAction) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, a *storyboard.UserDefinedAction) error

func (f ExecutorFunc) Execute(ctx context.Context, a *storyboard.UserDefinedAction) error {
	return f(ctx, a)
}

// ExecutorMux routes actions to executors by payload type.
type ExecutorMux struct {
	mu       sync.RWMutex
	routes   map[string]Executor
	fallback Executor
}

// NewExecutorMux creates an empty mux.
func NewExecutorMux() *ExecutorMux {
	return &ExecutorMux{routes: make(map[string]Executor)}
}

// Handle registers e for payloadType, replacing any previous executor.
func (m *ExecutorMux) Handle(payloadType string, e Executor) {
	m.mu.Lock()
	m.routes[payloadType] = e
	m.mu.Unlock()
}

// SetDefault sets the executor used for unrouted payload types.
func (m *ExecutorMux) SetDefault(e Executor) {
	m.mu.Lock()
	m.fallback = e
	m.mu.Unlock()
}

func (m *ExecutorMux) Execute(ctx context.Context, a *storyboard.UserDefinedAction) error {
	m.mu.RLock()
	e, ok := m.routes[a.PayloadType]
	if !ok {
		e = m.fallback
	}
	m.mu.RUnlock()

	if e == nil {
		return fmt.Errorf("%w: %q", ErrNoExecutor, a.PayloadType)
	}
	return e.Execute(ctx, a)
}
