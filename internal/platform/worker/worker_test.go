package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestFatal = errors.New("fatal")

func TestLoop_StopsOnFatalError(t *testing.T) {
	var calls int32

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errTestFatal
		},
		OnError: func(error) bool { return false },
	})

	require.ErrorIs(t, err, errTestFatal)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLoop_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var (
		calls    int32
		periodic int32
		stopped  bool
	)

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			if atomic.AddInt32(&calls, 1) == 3 {
				cancel()
			}

			return nil
		},
		PeriodicTasks: []PeriodicTask{{
			Name:     "housekeeping",
			Interval: time.Hour,
			Run:      func(context.Context) { atomic.AddInt32(&periodic, 1) },
		}},
		OnStop: func() { stopped = true },
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&periodic), "periodic task runs once within its interval")
	assert.True(t, stopped)
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

func TestInflight_RecoversAndWaits(t *testing.T) {
	inflight := NewInflight(nil)

	var ran int32

	inflight.Go("panics", func() { panic("boom") })
	inflight.Go("counts", func() { atomic.AddInt32(&ran, 1) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, inflight.Wait(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}
