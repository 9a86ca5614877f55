package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/fsnotify/fsnotify"

	"github.com/AaronLay10/ScenarioEngine/internal/events"
	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

// ScriptExecutor runs tengo payloads. PayloadContent is either inline
// source or "@name.tengo", a file under the scripts directory.
// A script may set `result`; a non-empty result is emitted as script.result.
type ScriptExecutor struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*tengo.Compiled
}

// NewScriptExecutor creates an executor loading files from dir.
func NewScriptExecutor(dir string) *ScriptExecutor {
	return &ScriptExecutor{
		dir:   dir,
		cache: make(map[string]*tengo.Compiled),
	}
}

// Dir returns the scripts directory.
func (s *ScriptExecutor) Dir() string {
	return s.dir
}

func (s *ScriptExecutor) Execute(ctx context.Context, a *storyboard.UserDefinedAction) error {
	compiled, err := s.compiled(a.PayloadContent)
	if err != nil {
		return err
	}

	run := compiled.Clone()
	if err := run.Set("action", a.Name()); err != nil {
		return err
	}
	if err := run.Set("session", events.SessionID()); err != nil {
		return err
	}
	if err := run.RunContext(ctx); err != nil {
		return fmt.Errorf("run script for %s: %w", a.Name(), err)
	}

	if run.IsDefined("result") {
		if v := run.Get("result"); v.ValueType() != "undefined" {
			events.Emit("info", "script.result", "", map[string]interface{}{
				"action": a.Name(),
				"result": v.Value(),
			})
		}
	}
	return nil
}

// Invalidate drops the compiled copy of a script file so the next run
// reloads it.
func (s *ScriptExecutor) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, "@"+name)
	s.mu.Unlock()
}

func (s *ScriptExecutor) compiled(content string) (*tengo.Compiled, error) {
	key := content
	s.mu.Lock()
	c, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return c, nil
	}

	src := []byte(content)
	if name, isFile := strings.CutPrefix(content, "@"); isFile {
		b, err := os.ReadFile(filepath.Join(s.dir, filepath.Clean("/"+name)))
		if err != nil {
			return nil, fmt.Errorf("load script %s: %w", name, err)
		}
		src = b
	}

	script := tengo.NewScript(src)
	_ = script.Add("action", "")
	_ = script.Add("session", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	c, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}

	s.mu.Lock()
	s.cache[key] = c
	s.mu.Unlock()
	return c, nil
}

// ScriptWatcher invalidates cached scripts when files in the scripts
// directory change.
type ScriptWatcher struct {
	watcher *fsnotify.Watcher
	exec    *ScriptExecutor
	done    chan struct{}
	once    sync.Once
}

// WatchScripts starts watching exec's directory until ctx is done or
// Close is called.
func WatchScripts(ctx context.Context, exec *ScriptExecutor) (*ScriptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(exec.Dir()); err != nil {
		_ = w.Close()
		return nil, err
	}

	sw := &ScriptWatcher{watcher: w, exec: exec, done: make(chan struct{})}
	go sw.run(ctx)
	return sw, nil
}

// Close stops the watcher.
func (w *ScriptWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *ScriptWatcher) run(ctx context.Context) {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".tengo" {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now

			name := filepath.Base(event.Name)
			w.exec.Invalidate(name)
			events.Emit("info", "script.reloaded", "", map[string]interface{}{
				"script": name,
				"op":     event.Op.String(),
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			events.Emit("error", "script.error", err.Error(), nil)
		case <-ctx.Done():
			_ = w.Close()
			return
		case <-w.done:
			return
		}
	}
}
