package reader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdaily/press/internal/publish"
	"github.com/printdaily/press/internal/storage"
)

var registered = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "press.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addUser(t *testing.T, s *storage.SQLStore, name string, at time.Time) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), &storage.User{
		Username: name, Email: name + "@example.com", PasswordHash: "x", CreatedAt: at,
	})
	require.NoError(t, err)
	return id
}

func TestListEditionsCreatesToday(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	u := addUser(t, store, "u", registered)
	r := New(store, nil)

	now := registered.Add(48 * time.Hour)
	list, err := r.ListEditions(ctx, u, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, storage.Day("2024-01-12"), list[0].Date)
	assert.Equal(t, 0, list[0].PrintCount)

	// Listing again must not create a second row.
	list, err = r.ListEditions(ctx, u, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListEditionsHidesRegistrationDay(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	u := addUser(t, store, "u", registered)
	r := New(store, nil)

	for _, d := range []storage.Day{"2024-01-08", "2024-01-09", "2024-01-10"} {
		_, err := store.UpsertEdition(ctx, u, d, registered)
		require.NoError(t, err)
	}

	list, err := r.ListEditions(ctx, u, registered)
	require.NoError(t, err)
	assert.Empty(t, list, "editions on or before the registration day are hidden")
}

func TestListEditionsOrderAndCounts(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	author := addUser(t, store, "author", registered.Add(-240*time.Hour))
	u := addUser(t, store, "u", registered)
	_, err := store.ToggleFollow(ctx, u, author, registered)
	require.NoError(t, err)
	asm := publish.New(store, nil)

	for i, n := range []int{2, 0, 1} {
		day := registered.Add(time.Duration(i+1) * 24 * time.Hour)
		for j := 0; j < n; j++ {
			_, err := store.CreatePrint(ctx, &storage.Print{AuthorID: author, Title: fmt.Sprintf("p%d-%d", i, j), Content: "c", CreatedAt: day})
			require.NoError(t, err)
		}
		_, err := asm.RunCycle(ctx, day)
		require.NoError(t, err)
	}

	list, err := New(store, nil).ListEditions(ctx, u, registered.Add(4*24*time.Hour))
	require.NoError(t, err)

	var got []string
	for _, e := range list {
		got = append(got, fmt.Sprintf("%s=%d", e.Date, e.PrintCount))
	}
	// 01-14 exists only because the reader created today's slot; the empty
	// 01-12 cycle created nothing.
	assert.Equal(t, []string{"2024-01-14=0", "2024-01-13=1", "2024-01-11=2"}, got)
}

func TestSameDaySelfPublishIsHidden(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	u := addUser(t, store, "newcomer", registered)

	_, err := store.CreatePrint(ctx, &storage.Print{AuthorID: u, Title: "first", Content: "c", CreatedAt: registered})
	require.NoError(t, err)
	_, err = publish.New(store, nil).RunCycle(ctx, registered.Add(time.Hour))
	require.NoError(t, err)

	r := New(store, nil)
	list, err := r.ListEditions(ctx, u, registered.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list, "a self-published print on the registration day stays below the cutoff")

	e, err := r.GetEdition(ctx, u, storage.DayOf(registered))
	require.NoError(t, err)
	assert.Len(t, e.Prints, 1, "the edition is still reachable by date")
}

func TestGetEditionMissing(t *testing.T) {
	store := newStore(t)
	u := addUser(t, store, "u", registered)

	e, err := New(store, nil).GetEdition(context.Background(), u, "2030-01-01")
	require.NoError(t, err)
	assert.Zero(t, e.EditionID)
	assert.NotNil(t, e.Prints)
	assert.Empty(t, e.Prints)
}

func TestListEditionsUnknownUser(t *testing.T) {
	store := newStore(t)
	list, err := New(store, nil).ListEditions(context.Background(), 404, registered)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetEditionShuffles(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	author := addUser(t, store, "author", registered)

	var ids []int64
	for i := 0; i < 8; i++ {
		id, err := store.CreatePrint(ctx, &storage.Print{AuthorID: author, Title: fmt.Sprintf("t%d", i), Content: "c", CreatedAt: registered})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	day := storage.DayOf(registered)
	edition, err := store.UpsertEdition(ctx, author, day, registered)
	require.NoError(t, err)
	_, err = store.AddToEdition(ctx, edition, ids, registered)
	require.NoError(t, err)

	r := New(store, nil)
	orders := map[string]bool{}
	for i := 0; i < 10; i++ {
		e, err := r.GetEdition(ctx, author, day)
		require.NoError(t, err)
		require.Len(t, e.Prints, len(ids))
		assert.Equal(t, "author", e.Prints[0].Author.Username)

		var key []string
		for _, p := range e.Prints {
			key = append(key, fmt.Sprint(p.ID))
		}
		orders[strings.Join(key, ",")] = true
	}
	// 8! orderings; ten identical draws would be astronomically unlikely.
	assert.Greater(t, len(orders), 1)
}

func TestGetEditionUsesShuffle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	author := addUser(t, store, "author", registered)
	day := storage.DayOf(registered)
	edition, err := store.UpsertEdition(ctx, author, day, registered)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		id, err := store.CreatePrint(ctx, &storage.Print{AuthorID: author, Title: fmt.Sprintf("t%d", i), Content: "c", CreatedAt: registered})
		require.NoError(t, err)
		_, err = store.AddToEdition(ctx, edition, []int64{id}, registered)
		require.NoError(t, err)
	}

	calls := 0
	r := New(store, nil)
	r.shuffle = func(p []storage.AuthoredPrint) {
		calls++
		p[0], p[len(p)-1] = p[len(p)-1], p[0]
	}
	e, err := r.GetEdition(ctx, author, day)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "t2", e.Prints[0].Title)
}
