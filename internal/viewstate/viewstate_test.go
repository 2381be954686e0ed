package viewstate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineLifecycle(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name   string
		err    error
		status Status
	}{
		{"success", nil, Ready},
		{"failure", errBoom, Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Machine
			assert.Equal(t, Idle, m.Status())

			_, ticket := m.Begin(context.Background())
			assert.Equal(t, Loading, m.Status())
			assert.True(t, m.Current(ticket))

			assert.True(t, m.Finish(ticket, tt.err))
			assert.Equal(t, tt.status, m.Status())
			assert.Equal(t, tt.err, m.Err())
			assert.False(t, m.Current(ticket))
			assert.False(t, m.Finish(ticket, nil), "finishing twice is ignored")
		})
	}
}

func TestBeginSupersedesEarlierLoad(t *testing.T) {
	var m Machine
	first, t1 := m.Begin(context.Background())
	second, t2 := m.Begin(context.Background())

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, m.Finish(t1, nil))
	assert.Equal(t, Loading, m.Status())

	assert.True(t, m.Finish(t2, nil))
	assert.Equal(t, Ready, m.Status())
	assert.ErrorIs(t, second.Err(), context.Canceled, "finished loads release their context")
}

func TestReloadFromReadyClearsError(t *testing.T) {
	var m Machine
	_, t1 := m.Begin(context.Background())
	m.Finish(t1, errors.New("offline"))
	assert.Equal(t, Error, m.Status())

	_, t2 := m.Begin(context.Background())
	assert.NoError(t, m.Err())
	m.Finish(t2, nil)
	assert.Equal(t, Ready, m.Status())
}

func TestResetDropsLoadInFlight(t *testing.T) {
	var m Machine
	ctx, ticket := m.Begin(context.Background())
	m.Reset()

	assert.Equal(t, Idle, m.Status())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, m.Finish(ticket, nil))
	assert.Equal(t, Idle, m.Status())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestSettleDropsLoadInFlight(t *testing.T) {
	var m Machine
	assert.False(t, m.Settle(), "nothing in flight")
	assert.Equal(t, Idle, m.Status())

	ctx, ticket := m.Begin(context.Background())
	assert.True(t, m.Settle())
	assert.Equal(t, Ready, m.Status())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, m.Current(ticket))
	assert.False(t, m.Finish(ticket, nil), "a settled load is stale")

	assert.False(t, m.Settle(), "already ready")
	assert.Equal(t, Ready, m.Status())
}
