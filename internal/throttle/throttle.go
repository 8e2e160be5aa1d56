package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"messaging-service/internal/sharedstate"
)

// Class identifies an independently throttled event class.
type Class string

const (
	ClassMessage     Class = "message"
	ClassTyping      Class = "typing"
	ClassReadReceipt Class = "read_receipt"
)

// Error is returned when an emit attempt arrives before the class interval
// has elapsed. RetryAfter tells the client how long to back off.
type Error struct {
	Class      Class
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("throttle %s: retry after %s", e.Class, e.RetryAfter)
}

// Intervals holds the minimum inter-emit interval per class.
type Intervals struct {
	Message     time.Duration
	Typing      time.Duration
	ReadReceipt time.Duration
}

// DefaultIntervals per the configuration surface defaults.
func DefaultIntervals() Intervals {
	return Intervals{
		Message:     500 * time.Millisecond,
		Typing:      2 * time.Second,
		ReadReceipt: time.Second,
	}
}

// Controller rate-limits event emission per (user, class). State lives in a
// sharedstate.Store so it can be externalized when connections for one user
// span multiple processes.
type Controller struct {
	intervals Intervals
	store     sharedstate.Store
}

// NewController builds a Controller. A nil store falls back to an in-memory
// one scoped to this process.
func NewController(intervals Intervals, store sharedstate.Store) *Controller {
	if store == nil {
		store = sharedstate.NewMemory()
	}
	return &Controller{intervals: intervals, store: store}
}

func (c *Controller) interval(class Class) time.Duration {
	switch class {
	case ClassTyping:
		return c.intervals.Typing
	case ClassReadReceipt:
		return c.intervals.ReadReceipt
	default:
		return c.intervals.Message
	}
}

// stateTTL bounds how long a (user, class) key may outlive its last write.
// Generous relative to the interval so in-flight decisions never race an
// expiry, while idle users eventually cost nothing.
func stateTTL(interval time.Duration) time.Duration {
	return 10 * interval
}

// TryEmit records an emission for (userID, class) at now, or rejects it with
// an *Error carrying backoff guidance. The first emit for a pair is always
// allowed. Classes never block each other.
func (c *Controller) TryEmit(ctx context.Context, userID int, class Class, now time.Time) error {
	interval := c.interval(class)
	key := fmt.Sprintf("throttle:%d:%s", userID, class)
	nowVal := strconv.FormatInt(now.UnixNano(), 10)

	for {
		prev, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("throttle state: %w", err)
		}
		if ok {
			lastNanos, err := strconv.ParseInt(prev, 10, 64)
			if err != nil {
				return fmt.Errorf("throttle state: parse %q: %w", prev, err)
			}
			elapsed := now.Sub(time.Unix(0, lastNanos))
			if elapsed < interval {
				return &Error{Class: class, RetryAfter: interval - elapsed}
			}
		} else {
			prev = ""
		}

		swapped, err := c.store.CompareAndSwap(ctx, key, prev, nowVal, stateTTL(interval))
		if err != nil {
			return fmt.Errorf("throttle state: %w", err)
		}
		if swapped {
			return nil
		}
		// Lost the race for this key, re-read and decide again.
	}
}

// RunCleanup periodically prunes stale in-memory throttle state until the
// context is cancelled. No-op for external stores.
func (c *Controller) RunCleanup(ctx context.Context, every, maxAge time.Duration) {
	mem, ok := c.store.(*sharedstate.Memory)
	if !ok {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mem.Prune(time.Now().Add(-maxAge))
		}
	}
}
