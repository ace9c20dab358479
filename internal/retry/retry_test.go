package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_NextDelay(t *testing.T) {
	p := Policy{InitialDelay: 500 * time.Millisecond, MaxDelay: 3 * time.Second}

	assert.Equal(t, 500*time.Millisecond, p.NextDelay(0))
	assert.Equal(t, 500*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, time.Second, p.NextDelay(2))
	assert.Equal(t, 2*time.Second, p.NextDelay(3))
	assert.Equal(t, 3*time.Second, p.NextDelay(4))

	assert.Equal(t, time.Second, Policy{}.NextDelay(1))
}

func TestDo(t *testing.T) {
	fast := Policy{MaxAttempts: 2, InitialDelay: time.Millisecond}

	t.Run("SuccessFirstTry", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("RetriesThenSucceeds", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := Do(context.Background(), fast, func(ctx context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("PermanentStops", func(t *testing.T) {
		calls := 0
		notFound := errors.New("not found")
		err := Do(context.Background(), fast, func(ctx context.Context) error {
			calls++
			return Permanent(notFound)
		})
		assert.Equal(t, notFound, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("ContextCancelledDuringSleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := Policy{MaxAttempts: 3, InitialDelay: time.Hour}
		calls := 0
		done := make(chan error, 1)
		go func() {
			done <- Do(ctx, slow, func(ctx context.Context) error {
				calls++
				return errors.New("fail")
			})
		}()
		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.Error(t, err)
			assert.Equal(t, 1, calls)
		case <-time.After(time.Second):
			t.Fatal("Do did not return after cancel")
		}
	})
}
