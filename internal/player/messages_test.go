package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

func TestDecodeMessage(t *testing.T) {
	m, err := DecodeMessage([]byte(`{"type":"speed","id":1,"speed":30,"shape":"cubic","dimension":"rate","value":2}`))
	require.NoError(t, err)

	assert.Equal(t, MsgSpeed, m.Type)
	assert.Equal(t, 1, m.EntityID)
	assert.Equal(t, 30.0, m.Speed)
	assert.Equal(t, storyboard.TransitionDynamics{
		Shape:     storyboard.ShapeCubic,
		Dimension: storyboard.DimensionRate,
		Value:     2,
	}, m.Dynamics())
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := map[string]string{
		"json":      `{"type":`,
		"shape":     `{"type":"speed","shape":"zigzag"}`,
		"dimension": `{"type":"lane_change","dimension":"parsecs"}`,
		"mode":      `{"type":"lane_change","mode":"sideways"}`,
		"acc":       `{"type":"lane_offset","max_lateral_acc":-1}`,
		"step_dt":   `{"type":"step_dt"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeMessageUnknownType(t *testing.T) {
	_, err := DecodeMessage([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestDecodeControlMessages(t *testing.T) {
	for _, typ := range []string{MsgPlay, MsgPause, MsgStep, MsgQuit, MsgRestart} {
		_, err := DecodeMessage([]byte(`{"type":"` + typ + `"}`))
		assert.NoError(t, err, typ)
	}
	m, err := DecodeMessage([]byte(`{"type":"step_dt","dt":0.2}`))
	require.NoError(t, err)
	assert.Equal(t, 0.2, m.DT)
}
