package throttle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstEmitAlwaysAllowed(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	now := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, now))
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassTyping, now))
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassReadReceipt, now))
}

func TestRejectWithinInterval(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassTyping, base))

	// Two typing events 100ms apart with a 2000ms interval.
	err := ctrl.TryEmit(context.Background(), 1, ClassTyping, base.Add(100*time.Millisecond))
	var throttled *Error
	require.ErrorAs(t, err, &throttled)
	assert.Equal(t, ClassTyping, throttled.Class)
	assert.Equal(t, 1900*time.Millisecond, throttled.RetryAfter)
}

func TestAllowAfterInterval(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, base))
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, base.Add(500*time.Millisecond)))
}

func TestRetryAfterShrinksWithElapsedTime(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassReadReceipt, base))

	err := ctrl.TryEmit(context.Background(), 1, ClassReadReceipt, base.Add(750*time.Millisecond))
	var throttled *Error
	require.ErrorAs(t, err, &throttled)
	assert.Equal(t, 250*time.Millisecond, throttled.RetryAfter)
}

func TestClassesAreIndependent(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, base))

	// A throttled message never blocks typing indicators.
	err := ctrl.TryEmit(context.Background(), 1, ClassMessage, base.Add(100*time.Millisecond))
	var throttled *Error
	require.ErrorAs(t, err, &throttled)
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassTyping, base.Add(100*time.Millisecond)))
}

func TestUsersAreIndependent(t *testing.T) {
	ctrl := NewController(DefaultIntervals(), nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, base))
	require.NoError(t, ctrl.TryEmit(context.Background(), 2, ClassMessage, base))
}

func TestErrorIsDistinguishable(t *testing.T) {
	ctrl := NewController(Intervals{Message: time.Second, Typing: time.Second, ReadReceipt: time.Second}, nil)

	base := time.Now()
	require.NoError(t, ctrl.TryEmit(context.Background(), 1, ClassMessage, base))

	err := ctrl.TryEmit(context.Background(), 1, ClassMessage, base)
	var throttled *Error
	assert.True(t, errors.As(err, &throttled))
	assert.Contains(t, err.Error(), "retry after")
}
