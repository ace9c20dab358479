package menusync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	clock := newFakeClock()
	b := NewCircuitBreaker(3, 30*time.Second, clock.Now)

	t.Run("OpensAfterThreshold", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			assert.True(t, b.Allow())
			b.Failure()
		}
		assert.Equal(t, StateClosed, b.State())

		assert.True(t, b.Allow())
		b.Failure()
		assert.Equal(t, StateOpen, b.State())

		clock.Advance(time.Millisecond)
		assert.False(t, b.Allow())
	})

	t.Run("SingleProbeAfterTimeout", func(t *testing.T) {
		clock.Advance(30 * time.Second)
		assert.Equal(t, StateHalfOpen, b.State())
		assert.True(t, b.Allow())
		assert.False(t, b.Allow(), "only one probe in flight")
	})

	t.Run("ProbeFailureReopens", func(t *testing.T) {
		b.Failure()
		assert.Equal(t, StateOpen, b.State())
		assert.False(t, b.Allow())
	})

	t.Run("ProbeSuccessCloses", func(t *testing.T) {
		clock.Advance(31 * time.Second)
		assert.True(t, b.Allow())
		b.Success()
		assert.Equal(t, StateClosed, b.State())
		assert.Equal(t, 0, b.Failures())
		assert.True(t, b.Allow())
	})
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute, nil)
	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()
	assert.Equal(t, StateClosed, b.State())
}
