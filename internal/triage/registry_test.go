package triage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StartAndRelease(t *testing.T) {
	r := NewRegistry()

	ctx, id, release := r.Start(context.Background(), 1)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, r.Count(1))
	assert.Equal(t, 1, r.Size())

	release()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, 0, r.Count(1))
	assert.Equal(t, 0, r.Size())

	// Releasing twice is harmless.
	release()
	assert.Equal(t, 0, r.Size())
}

func TestRegistry_CancelUser(t *testing.T) {
	r := NewRegistry()

	a, _, releaseA := r.Start(context.Background(), 1)
	b, _, releaseB := r.Start(context.Background(), 1)
	other, _, releaseOther := r.Start(context.Background(), 2)

	defer releaseA()
	defer releaseB()
	defer releaseOther()

	assert.Equal(t, 2, r.CancelUser(1))
	assert.Error(t, a.Err())
	assert.Error(t, b.Err())
	assert.NoError(t, other.Err())

	assert.Equal(t, 0, r.Count(1))
	assert.Equal(t, 1, r.Count(2))
	assert.Equal(t, 0, r.CancelUser(1))
}

func TestRegistry_CancelAll(t *testing.T) {
	r := NewRegistry()

	var ctxs []context.Context

	for userID := int64(1); userID <= 3; userID++ {
		ctx, _, release := r.Start(context.Background(), userID)
		defer release()

		ctxs = append(ctxs, ctx)
	}

	r.CancelAll()

	for _, ctx := range ctxs {
		assert.Error(t, ctx.Err())
	}

	assert.Equal(t, 0, r.Size())
}

func TestRegistry_ParentCancelPropagates(t *testing.T) {
	r := NewRegistry()
	parent, cancel := context.WithCancel(context.Background())

	ctx, _, release := r.Start(parent, 1)
	defer release()

	cancel()
	<-ctx.Done()

	// The handle stays registered until released.
	assert.Equal(t, 1, r.Count(1))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(userID int64) {
			defer wg.Done()

			_, _, release := r.Start(context.Background(), userID%5)
			if userID%2 == 0 {
				r.CancelUser(userID % 5)
			}

			release()
		}(int64(i))
	}

	wg.Wait()

	assert.Equal(t, 0, r.Size())
}
