package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// element lifecycle
	"element.state_changed":      {},
	"element.invalid_transition": {},
	"element.exhausted":          {},

	// actions
	"action.started":  {},
	"action.executed": {},
	"action.failed":   {},

	// injection
	"injector.added":    {},
	"injector.rejected": {},
	"injector.finished": {},
	"injector.unknown":  {},

	// player
	"player.started": {},
	"player.paused":  {},
	"player.resumed": {},
	"player.step":    {},
	"player.quit":    {},

	// operator
	"operator.control": {},
	"operator.inject":  {},

	// session
	"session.started": {},
	"session.reset":   {},

	// script
	"script.reloaded": {},
	"script.result":   {},
	"script.error":    {},

	// system
	"system.startup":         {},
	"system.startup_restore": {},
	"system.shutdown":        {},
	"system.error":           {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
