package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AaronLay10/ScenarioEngine/internal/storyboard"
)

func TestExecutorMuxRoutes(t *testing.T) {
	var got []string
	record := func(tag string) Executor {
		return ExecutorFunc(func(_ context.Context, a *storyboard.UserDefinedAction) error {
			got = append(got, tag+":"+a.Name())
			return nil
		})
	}

	mux := NewExecutorMux()
	mux.Handle("mqtt", record("mqtt"))
	mux.Handle("tengo", record("tengo"))

	ctx := context.Background()
	assert.NoError(t, mux.Execute(ctx, storyboard.NewUserDefinedAction("a", "mqtt", "")))
	assert.NoError(t, mux.Execute(ctx, storyboard.NewUserDefinedAction("b", "tengo", "")))

	err := mux.Execute(ctx, storyboard.NewUserDefinedAction("c", "shell", ""))
	assert.ErrorIs(t, err, ErrNoExecutor)

	mux.SetDefault(record("default"))
	assert.NoError(t, mux.Execute(ctx, storyboard.NewUserDefinedAction("d", "shell", "")))

	assert.Equal(t, []string{"mqtt:a", "tengo:b", "default:d"}, got)
}
