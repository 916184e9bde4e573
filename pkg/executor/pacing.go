package executor

import (
	"context"
	"time"

	"github.com/labcitrus/avagen-runner/pkg/plan"
)

const (
	// DefaultStepDelay is the pause inserted after a step unless the next
	// step is an explicit sleep.
	DefaultStepDelay = 1000 * time.Millisecond

	// ScrollSettleDelay is added before DefaultStepDelay after a scroll so
	// the scroll animation can settle. The two delays stack.
	ScrollSettleDelay = 2000 * time.Millisecond

	// DefaultSleep is used by sleep steps without a positive millis value.
	DefaultSleep = 1000 * time.Millisecond
)

// Pacing holds the inter-step delays.
type Pacing struct {
	StepDelay         time.Duration
	ScrollSettleDelay time.Duration
	DefaultSleep      time.Duration
}

// DefaultPacing returns the standard delays.
func DefaultPacing() Pacing {
	return Pacing{
		StepDelay:         DefaultStepDelay,
		ScrollSettleDelay: ScrollSettleDelay,
		DefaultSleep:      DefaultSleep,
	}
}

// After returns the waits to apply between a step of kind current and the
// following step of kind next, in order.
func (p Pacing) After(current, next plan.ActionKind) []time.Duration {
	if next == plan.ActionSleep {
		return nil
	}
	if current.IsScroll() {
		return []time.Duration{p.ScrollSettleDelay, p.StepDelay}
	}
	return []time.Duration{p.StepDelay}
}

// SleepFor returns the duration of a sleep step.
func (p Pacing) SleepFor(step plan.Step) time.Duration {
	if step.Millis != nil && *step.Millis > 0 {
		return time.Duration(*step.Millis) * time.Millisecond
	}
	return p.DefaultSleep
}

// Sleeper is the executor's only suspension point.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() when
	// the wait ended early.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper waits on the wall clock.
type RealSleeper struct{}

// Sleep implements Sleeper.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
