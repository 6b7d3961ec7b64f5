// Package schedule authenticates publication triggers and drives the
// publication cycle, with retries, once per trigger or once per day.
package schedule

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/printdaily/press/internal/publish"
)

// ErrUnauthorized is returned when a trigger's secret does not match.
var ErrUnauthorized = errors.New("unauthorized")

// Cycle is the publication work a trigger drives.
type Cycle interface {
	RunCycle(ctx context.Context, now time.Time) (*publish.Result, error)
	Fanout(ctx context.Context, now time.Time) (*publish.Result, error)
}

// Options configures a Trigger. Zero values fall back to one attempt, a
// one-second delay, time.Now and slog.Default().
type Options struct {
	Secret   string
	Attempts uint
	Delay    time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Trigger serialises publication cycles within the process and retries
// failed ones.
type Trigger struct {
	cycle    Cycle
	secret   string
	attempts uint
	delay    time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu sync.Mutex
}

func NewTrigger(cycle Cycle, opts Options) *Trigger {
	t := &Trigger{
		cycle:    cycle,
		secret:   opts.Secret,
		attempts: opts.Attempts,
		delay:    opts.Delay,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if t.attempts == 0 {
		t.attempts = 1
	}
	if t.delay <= 0 {
		t.delay = time.Second
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Authorize checks provided against the configured secret. An empty
// configured secret disables the check.
func Authorize(configured, provided string) error {
	if configured == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Fire authenticates secret and runs one cycle.
func (t *Trigger) Fire(ctx context.Context, secret string) (*publish.Result, error) {
	if err := Authorize(t.secret, secret); err != nil {
		t.logger.Warn("Publication trigger rejected")
		return nil, err
	}
	return t.Run(ctx)
}

// Run executes one cycle at the current time without authentication. If the
// status flip succeeds but fan-out fails, later attempts only redo the
// fan-out, and the result still reports the prints the first attempt
// published.
//
// Cancelling ctx never interrupts an attempt: once the flip commits, the
// fan-out must run, or the day's prints are published but never delivered.
// ctx only stops the wait between attempts.
func (t *Trigger) Run(ctx context.Context) (*publish.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	work := context.WithoutCancel(ctx)
	now := t.now()
	var (
		result    *publish.Result
		published = -1
		lastErr   error
	)

	err := retry.Do(
		func() error {
			var err error
			if published < 0 {
				result, err = t.cycle.RunCycle(work, now)
				var fe *publish.FanoutError
				if errors.As(err, &fe) {
					published = fe.Published
				}
			} else {
				result, err = t.cycle.Fanout(work, now)
				if err == nil {
					result.PrintsPublished = published
				}
			}
			lastErr = err
			return err
		},
		retry.Attempts(t.attempts),
		retry.Delay(t.delay),
		retry.MaxDelay(16*t.delay),
		retry.MaxJitter(t.delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			t.logger.Warn("Retrying publication cycle", "attempt", n+1, "fanout_only", published >= 0, "error", err)
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
	)
	if err != nil {
		if lastErr != nil {
			return nil, fmt.Errorf("publication cycle failed: %w", lastErr)
		}
		return nil, fmt.Errorf("publication cycle failed: %w", err)
	}
	return result, nil
}

// ParseAt parses a daily run time in 24-hour HH:MM form.
func ParseAt(at string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(at, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid run time %q: want HH:MM", at)
	}
	hour, herr := strconv.Atoi(h)
	minute, merr := strconv.Atoi(m)
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("invalid run time %q: want HH:MM", at)
	}
	return hour, minute, nil
}

// NextRun returns the first instant strictly after now at hour:minute UTC.
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Daily runs the cycle every day at the HH:MM UTC time in at until ctx is
// cancelled. Cycle failures are logged and do not stop the loop.
func (t *Trigger) Daily(ctx context.Context, at string) error {
	hour, minute, err := ParseAt(at)
	if err != nil {
		return err
	}

	for {
		now := t.now()
		next := NextRun(now, hour, minute)
		t.logger.Info("Next publication scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		res, err := t.Run(ctx)
		if err != nil {
			t.logger.Error("Scheduled publication failed", "error", err)
			continue
		}
		t.logger.Info("Scheduled publication completed",
			"run_id", res.RunID,
			"prints_published", res.PrintsPublished,
			"editions_created", res.EditionsCreated)
	}
}
