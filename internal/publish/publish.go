// Package publish runs the daily publication cycle: it flips pending prints to
// published and fans the day's published prints out into every recipient's
// dated edition.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/printdaily/press/internal/storage"
)

// Store is the slice of the data layer the cycle needs.
type Store interface {
	PublishPending(ctx context.Context, at time.Time) (int64, error)
	PublishedSince(ctx context.Context, since time.Time) ([]storage.PrintRef, error)
	FollowersOf(ctx context.Context, since time.Time) ([]storage.Follow, error)
	UpsertEdition(ctx context.Context, userID int64, day storage.Day, at time.Time) (int64, error)
	AddToEdition(ctx context.Context, editionID int64, printIDs []int64, at time.Time) (int, error)
}

// Result summarises one cycle.
type Result struct {
	RunID            string
	Day              storage.Day
	PrintsPublished  int
	EditionsCreated  int
	MembershipsAdded int
}

// FanoutError reports a cycle whose status flip committed but whose fan-out
// did not finish. Published is the number of prints the flip moved; the
// remaining work is recovered with Assembler.Fanout on the same day.
type FanoutError struct {
	Published int
	Err       error
}

func (e *FanoutError) Error() string {
	return fmt.Sprintf("fan-out after publishing %d prints: %v", e.Published, e.Err)
}

func (e *FanoutError) Unwrap() error {
	return e.Err
}

// Assembler drives publication cycles against a Store.
type Assembler struct {
	store  Store
	logger *slog.Logger
}

// New creates an Assembler. A nil logger uses slog.Default().
func New(store Store, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{store: store, logger: logger}
}

// RunCycle publishes every pending print at now and fans the day's published
// prints out. When nothing was pending the cycle stops after the flip and
// returns a zero result.
func (a *Assembler) RunCycle(ctx context.Context, now time.Time) (*Result, error) {
	now = now.UTC()
	res := &Result{RunID: uuid.NewString(), Day: storage.DayOf(now)}
	start := time.Now()

	a.logger.Info("Publication cycle starting", "run_id", res.RunID, "day", res.Day)

	n, err := a.store.PublishPending(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("publish pending: %w", err)
	}
	res.PrintsPublished = int(n)
	if n == 0 {
		a.logger.Info("Publication cycle finished, nothing pending", "run_id", res.RunID)
		return res, nil
	}

	if err := a.fanout(ctx, now, res); err != nil {
		a.logger.Error("Fan-out failed after publish",
			"run_id", res.RunID,
			"prints_published", res.PrintsPublished,
			"editions_created", res.EditionsCreated,
			"error", err)
		return nil, &FanoutError{Published: res.PrintsPublished, Err: err}
	}

	a.logger.Info("Publication cycle finished",
		"run_id", res.RunID,
		"prints_published", res.PrintsPublished,
		"editions_created", res.EditionsCreated,
		"memberships_added", res.MembershipsAdded,
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// Fanout re-derives the set of prints published on now's day and ensures every
// recipient's edition holds them, without flipping anything. It is safe to run
// any number of times on the same day.
func (a *Assembler) Fanout(ctx context.Context, now time.Time) (*Result, error) {
	now = now.UTC()
	res := &Result{RunID: uuid.NewString(), Day: storage.DayOf(now)}
	if err := a.fanout(ctx, now, res); err != nil {
		return nil, err
	}
	a.logger.Info("Fan-out finished",
		"run_id", res.RunID,
		"editions_created", res.EditionsCreated,
		"memberships_added", res.MembershipsAdded)
	return res, nil
}

func (a *Assembler) fanout(ctx context.Context, now time.Time, res *Result) error {
	prints, err := a.store.PublishedSince(ctx, res.Day.Start())
	if err != nil {
		return fmt.Errorf("load published prints: %w", err)
	}
	if len(prints) == 0 {
		return nil
	}

	follows, err := a.store.FollowersOf(ctx, res.Day.Start())
	if err != nil {
		return fmt.Errorf("load followers: %w", err)
	}

	plan := Plan(prints, follows)
	for _, recipient := range Recipients(plan) {
		editionID, err := a.store.UpsertEdition(ctx, recipient, res.Day, now)
		if err != nil {
			return fmt.Errorf("upsert edition for user %d: %w", recipient, err)
		}
		res.EditionsCreated++

		added, err := a.store.AddToEdition(ctx, editionID, plan[recipient], now)
		if err != nil {
			return fmt.Errorf("fill edition %d: %w", editionID, err)
		}
		res.MembershipsAdded += added

		a.logger.Debug("Edition assembled",
			"run_id", res.RunID,
			"user_id", recipient,
			"edition_id", editionID,
			"prints", len(plan[recipient]),
			"added", added)
	}
	return nil
}

// Authors returns the distinct author IDs of prints, ascending.
func Authors(prints []storage.PrintRef) []int64 {
	ids := make([]int64, 0, len(prints))
	for _, p := range prints {
		ids = append(ids, p.AuthorID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Plan maps each recipient to the IDs of the prints that belong in their
// edition: prints by authors they follow plus their own. Recipients with no
// matching prints are absent.
func Plan(prints []storage.PrintRef, follows []storage.Follow) map[int64][]int64 {
	sources := make(map[int64][]int64)
	for _, f := range follows {
		sources[f.FollowerID] = append(sources[f.FollowerID], f.FollowingID)
	}
	// Every author receives their own prints.
	for _, author := range Authors(prints) {
		if !slices.Contains(sources[author], author) {
			sources[author] = append(sources[author], author)
		}
	}

	plan := make(map[int64][]int64, len(sources))
	for recipient, authors := range sources {
		var ids []int64
		for _, p := range prints {
			if slices.Contains(authors, p.AuthorID) {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) > 0 {
			plan[recipient] = ids
		}
	}
	return plan
}

// Recipients returns the keys of plan in ascending order.
func Recipients(plan map[int64][]int64) []int64 {
	ids := make([]int64, 0, len(plan))
	for id := range plan {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
