package welcome

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdaily/press/internal/storage"
)

var seedNow = time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)

func newSeeder(t *testing.T) (*Seeder, *storage.SQLStore) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "press.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, ContentFromConfig(storage.DefaultConfig()), nil), store
}

func TestSeedContentIdempotent(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder(t)

	first, err := s.SeedContent(ctx, seedNow)
	require.NoError(t, err)
	require.Len(t, first, 4)

	for i := 0; i < 3; i++ {
		again, err := s.SeedContent(ctx, seedNow.Add(time.Duration(i+1)*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	sys, err := store.GetUserByUsername(ctx, "print_team")
	require.NoError(t, err)
	assert.Equal(t, "PRINT Team", sys.DisplayName)
	assert.Equal(t, "system@print.app", sys.Email)

	all, err := store.ListPrints(ctx, sys.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, p := range all {
		assert.Equal(t, storage.StatusPublished, p.Status)
		assert.Equal(t, "Welcome to PRINT", p.Title)
		require.NotNil(t, p.PublishedAt)
	}
}

func TestSeedContentAddsNewText(t *testing.T) {
	ctx := context.Background()
	s, _ := newSeeder(t)
	_, err := s.SeedContent(ctx, seedNow)
	require.NoError(t, err)

	s.content.Contents = append(s.content.Contents, "A fifth page.")
	ids, err := s.SeedContent(ctx, seedNow)
	require.NoError(t, err)
	assert.Len(t, ids, 5)
}

func TestAttachToEdition(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder(t)

	u, err := store.CreateUser(ctx, &storage.User{Username: "u", Email: "u@example.com", PasswordHash: "x", CreatedAt: seedNow})
	require.NoError(t, err)
	edition, err := store.UpsertEdition(ctx, u, storage.DayOf(seedNow), seedNow)
	require.NoError(t, err)

	added, err := s.AttachToEdition(ctx, edition, seedNow)
	require.NoError(t, err)
	assert.Zero(t, added, "nothing to attach before seeding")

	ids, err := s.SeedContent(ctx, seedNow)
	require.NoError(t, err)

	added, err = s.AttachToEdition(ctx, edition, seedNow)
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = s.AttachToEdition(ctx, edition, seedNow)
	require.NoError(t, err)
	assert.Zero(t, added)

	got, err := store.EditionPrintIDs(ctx, edition)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, got)
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()
	s, store := newSeeder(t)
	_, err := s.SeedContent(ctx, seedNow)
	require.NoError(t, err)

	early := time.Date(2023, 12, 1, 23, 30, 0, 0, time.UTC)
	late := time.Date(2024, 1, 5, 0, 15, 0, 0, time.UTC)
	a, err := store.CreateUser(ctx, &storage.User{Username: "a", Email: "a@example.com", PasswordHash: "x", CreatedAt: early})
	require.NoError(t, err)
	b, err := store.CreateUser(ctx, &storage.User{Username: "b", Email: "b@example.com", PasswordHash: "x", CreatedAt: late})
	require.NoError(t, err)

	res, err := s.Backfill(ctx, seedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Users)
	assert.Equal(t, 8, res.MembershipsAdded)

	res, err = s.Backfill(ctx, seedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Users)
	assert.Zero(t, res.MembershipsAdded)

	ea, err := store.GetEdition(ctx, a, "2023-12-01")
	require.NoError(t, err)
	ids, err := store.EditionPrintIDs(ctx, ea.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 4)

	_, err = store.GetEdition(ctx, b, "2024-01-05")
	require.NoError(t, err)

	sys, err := store.GetUserByUsername(ctx, "print_team")
	require.NoError(t, err)
	_, err = store.GetEdition(ctx, sys.ID, storage.DayOf(seedNow))
	assert.ErrorIs(t, err, storage.ErrNotFound, "the system account gets no edition")
}

func TestBackfillWithoutSeed(t *testing.T) {
	s, _ := newSeeder(t)
	res, err := s.Backfill(context.Background(), seedNow)
	require.NoError(t, err)
	assert.Zero(t, res.Users)
}
