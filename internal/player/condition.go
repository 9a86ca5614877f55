package player

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/AaronLay10/ScenarioEngine/internal/entities"
)

// Condition is a compiled start_when expression. Expressions see
// sim_time and an entities map keyed by entity name, for example
// `sim_time > 2 && entities.Ego.speed >= 20`.
type Condition struct {
	source  string
	program *vm.Program
}

// CompileCondition compiles src. The result must be boolean.
func CompileCondition(src string) (*Condition, error) {
	prg, err := expr.Compile(src,
		expr.Env(conditionEnv(0, nil)),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", src, err)
	}
	return &Condition{source: src, program: prg}, nil
}

func (c *Condition) String() string {
	return c.source
}

// Eval runs the condition against the current sim time and entity snapshots.
func (c *Condition) Eval(simTime float64, snaps []entities.Snapshot) (bool, error) {
	out, err := vm.Run(c.program, conditionEnv(simTime, snaps))
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q: %w", c.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T", c.source, out)
	}
	return b, nil
}

func conditionEnv(simTime float64, snaps []entities.Snapshot) map[string]any {
	ents := make(map[string]any, len(snaps))
	for _, s := range snaps {
		ents[s.Name] = map[string]any{
			"id":             s.ID,
			"speed":          s.Speed,
			"lane_id":        s.LaneID,
			"lateral_offset": s.LateralOffset,
			"odometer":       s.Odometer,
		}
	}
	return map[string]any{
		"sim_time": simTime,
		"entities": ents,
	}
}
