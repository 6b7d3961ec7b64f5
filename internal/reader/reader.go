// Package reader reconstructs a user's edition index and the contents of a
// single edition.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/printdaily/press/internal/storage"
)

// Store is the slice of the data layer the reader needs.
type Store interface {
	GetUser(ctx context.Context, id int64) (*storage.User, error)
	UpsertEdition(ctx context.Context, userID int64, day storage.Day, at time.Time) (int64, error)
	GetEdition(ctx context.Context, userID int64, day storage.Day) (*storage.Edition, error)
	ListEditions(ctx context.Context, userID int64, after storage.Day) ([]storage.EditionSummary, error)
	EditionPrints(ctx context.Context, editionID int64) ([]storage.AuthoredPrint, error)
}

// Edition is one day's delivery for a reader. EditionID is zero when no
// edition row exists for that day.
type Edition struct {
	Date      storage.Day
	EditionID int64
	Prints    []storage.AuthoredPrint
}

type Reader struct {
	store   Store
	shuffle func([]storage.AuthoredPrint)
	logger  *slog.Logger
}

func New(store Store, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{store: store, shuffle: shuffle, logger: logger}
}

func shuffle(prints []storage.AuthoredPrint) {
	rand.Shuffle(len(prints), func(i, j int) {
		prints[i], prints[j] = prints[j], prints[i]
	})
}

// ListEditions ensures today's edition exists for userID, then returns the
// user's editions dated strictly after their registration day, newest first.
// An unknown user yields an empty list.
func (r *Reader) ListEditions(ctx context.Context, userID int64, now time.Time) ([]storage.EditionSummary, error) {
	user, err := r.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if _, err := r.store.UpsertEdition(ctx, userID, storage.DayOf(now), now); err != nil {
		return nil, fmt.Errorf("ensure today's edition: %w", err)
	}

	editions, err := r.store.ListEditions(ctx, userID, storage.DayOf(user.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("list editions: %w", err)
	}
	return editions, nil
}

// GetEdition returns the prints in userID's edition for day, in a fresh
// random order on every call. A missing edition is an empty result.
func (r *Reader) GetEdition(ctx context.Context, userID int64, day storage.Day) (*Edition, error) {
	out := &Edition{Date: day, Prints: []storage.AuthoredPrint{}}

	e, err := r.store.GetEdition(ctx, userID, day)
	if errors.Is(err, storage.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load edition: %w", err)
	}
	out.EditionID = e.ID

	prints, err := r.store.EditionPrints(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("load edition prints: %w", err)
	}
	r.shuffle(prints)
	if prints != nil {
		out.Prints = prints
	}

	r.logger.Debug("Edition read", "user_id", userID, "date", day, "prints", len(out.Prints))
	return out, nil
}
