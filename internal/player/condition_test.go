package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/ScenarioEngine/internal/entities"
)

func TestConditionEval(t *testing.T) {
	snaps := []entities.Snapshot{{ID: 0, Name: "Ego", Speed: 25, LaneID: -1}}

	c, err := CompileCondition(`sim_time >= 2 && entities.Ego.speed > 20`)
	require.NoError(t, err)
	assert.Equal(t, `sim_time >= 2 && entities.Ego.speed > 20`, c.String())

	ok, err := c.Eval(1, snaps)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Eval(2.5, snaps)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompileConditionRejectsNonBool(t *testing.T) {
	_, err := CompileCondition(`sim_time + 1`)
	assert.Error(t, err)

	_, err = CompileCondition(`sim_time >=`)
	assert.Error(t, err)
}
