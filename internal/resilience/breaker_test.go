package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func TestNewBreaker_TripsAfterMinRequests(t *testing.T) {
	// Given: a breaker that trips at 50% failures over 4 requests
	cb := NewBreaker[int]("test", BreakerConfig{FailureRatio: 0.5, MinRequests: 4, OpenTimeout: time.Minute}, nil)

	// When: four calls fail
	for i := 0; i < 4; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, errBackend })
		require.ErrorIs(t, err, errBackend)
	}

	// Then: the breaker is open and refuses calls without running them
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	ran := false
	_, err := cb.Execute(func() (int, error) { ran = true; return 1, nil })
	assert.True(t, IsOpen(err))
	assert.False(t, ran)
}

func TestNewBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cb := NewBreaker[int]("test", BreakerConfig{FailureRatio: 0.5, MinRequests: 10}, nil)

	for i := 0; i < 9; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, errBackend })
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNewBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	// Given: caller cancellations are not backend failures
	isFailure := func(err error) bool { return !errors.Is(err, context.Canceled) }
	cb := NewBreaker[int]("test", BreakerConfig{FailureRatio: 0.5, MinRequests: 2}, isFailure)

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, context.Canceled })
		require.ErrorIs(t, err, context.Canceled)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNewBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewBreaker[int]("test", BreakerConfig{FailureRatio: 0.5, MinRequests: 1, OpenTimeout: 20 * time.Millisecond}, nil)

	_, _ = cb.Execute(func() (int, error) { return 0, errBackend })
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreakerConfig_Normalize(t *testing.T) {
	cfg := BreakerConfig{FailureRatio: 2}.normalize()

	assert.Equal(t, DefaultFailureRatio, cfg.FailureRatio)
	assert.Equal(t, uint32(DefaultMinRequests), cfg.MinRequests)
	assert.Equal(t, DefaultOpenTimeout, cfg.OpenTimeout)
	assert.Equal(t, uint32(DefaultHalfOpenMaxCall), cfg.HalfOpenMaxCalls)
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(gobreaker.ErrOpenState))
	assert.True(t, IsOpen(gobreaker.ErrTooManyRequests))
	assert.False(t, IsOpen(errBackend))
	assert.False(t, IsOpen(nil))
}
