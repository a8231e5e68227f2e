package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newTestBreaker(cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(Settings{
		Name:             "test",
		FailureThreshold: 3,
		Cooldown:         cooldown,
	})
}

func TestExecute_PassesThroughWhileClosed(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	calls := 0
	err := cb.Execute(func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errBoom })
		require.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	// The breaker now fails fast without invoking the call.
	calls := 0
	err := cb.Execute(func() error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 0, calls)
}

func TestExecute_SuccessResetsFailureStreak(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errBoom }))
	require.Error(t, cb.Execute(func() error { return errBoom }))

	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_ProbeAfterCooldown(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(func() error { return errBoom }))
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First probe fails and re-opens the breaker.
	require.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Second probe succeeds and closes it.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
