package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdaily/press/internal/publish"
	"github.com/printdaily/press/internal/storage"
)

var fixedNow = time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC)

// scriptedCycle returns queued errors before succeeding.
type scriptedCycle struct {
	runErrs    []error
	fanoutErrs []error
	runs       int
	fanouts    int
	lastNow    time.Time
}

func (c *scriptedCycle) RunCycle(ctx context.Context, now time.Time) (*publish.Result, error) {
	c.runs++
	c.lastNow = now
	if len(c.runErrs) > 0 {
		err := c.runErrs[0]
		c.runErrs = c.runErrs[1:]
		return nil, err
	}
	return &publish.Result{RunID: "run", Day: storage.DayOf(now), PrintsPublished: 3, EditionsCreated: 2}, nil
}

func (c *scriptedCycle) Fanout(ctx context.Context, now time.Time) (*publish.Result, error) {
	c.fanouts++
	c.lastNow = now
	if len(c.fanoutErrs) > 0 {
		err := c.fanoutErrs[0]
		c.fanoutErrs = c.fanoutErrs[1:]
		return nil, err
	}
	return &publish.Result{RunID: "fanout", Day: storage.DayOf(now), EditionsCreated: 2}, nil
}

func newTestTrigger(c Cycle, secret string, attempts uint) *Trigger {
	return NewTrigger(c, Options{
		Secret:   secret,
		Attempts: attempts,
		Delay:    time.Millisecond,
		Now:      func() time.Time { return fixedNow },
	})
}

func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize("", ""))
	assert.NoError(t, Authorize("", "anything"))
	assert.NoError(t, Authorize("s3cret", "s3cret"))
	assert.ErrorIs(t, Authorize("s3cret", ""), ErrUnauthorized)
	assert.ErrorIs(t, Authorize("s3cret", "s3cre"), ErrUnauthorized)
}

func TestFireRejectsBadSecret(t *testing.T) {
	c := &scriptedCycle{}
	trig := newTestTrigger(c, "s3cret", 1)

	_, err := trig.Fire(context.Background(), "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, c.runs, "cycle must not run when unauthorized")

	res, err := trig.Fire(context.Background(), "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 3, res.PrintsPublished)
	assert.Equal(t, fixedNow, c.lastNow)
}

func TestRunRetriesBeforeFlip(t *testing.T) {
	c := &scriptedCycle{runErrs: []error{errors.New("db locked")}}
	trig := newTestTrigger(c, "", 3)

	res, err := trig.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.runs)
	assert.Zero(t, c.fanouts)
	assert.Equal(t, 3, res.PrintsPublished)
}

func TestRunResumesWithFanout(t *testing.T) {
	c := &scriptedCycle{runErrs: []error{&publish.FanoutError{Published: 5, Err: errors.New("conn reset")}}}
	trig := newTestTrigger(c, "", 3)

	res, err := trig.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.runs, "the flip must not be repeated")
	assert.Equal(t, 1, c.fanouts)
	assert.Equal(t, 5, res.PrintsPublished)
	assert.Equal(t, 2, res.EditionsCreated)
}

func TestRunGivesUp(t *testing.T) {
	boom := errors.New("still down")
	c := &scriptedCycle{
		runErrs:    []error{&publish.FanoutError{Published: 1, Err: boom}},
		fanoutErrs: []error{boom, boom},
	}
	trig := newTestTrigger(c, "", 3)

	_, err := trig.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.runs)
	assert.Equal(t, 2, c.fanouts)
}

// cancelAfterFlip cancels the caller's context as soon as the flip commits,
// the way a disconnecting HTTP client or SIGTERM would.
type cancelAfterFlip struct {
	*storage.SQLStore
	cancel context.CancelFunc
}

func (s *cancelAfterFlip) PublishPending(ctx context.Context, at time.Time) (int64, error) {
	n, err := s.SQLStore.PublishPending(ctx, at)
	s.cancel()
	return n, err
}

func TestRunSurvivesCancelAfterFlip(t *testing.T) {
	bg := context.Background()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "press.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registered := fixedNow.Add(-72 * time.Hour)
	alice, err := store.CreateUser(bg, &storage.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", CreatedAt: registered})
	require.NoError(t, err)
	bob, err := store.CreateUser(bg, &storage.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", CreatedAt: registered})
	require.NoError(t, err)
	_, err = store.ToggleFollow(bg, bob, alice, registered)
	require.NoError(t, err)
	printID, err := store.CreatePrint(bg, &storage.Print{AuthorID: alice, Title: "t", Content: "c", CreatedAt: fixedNow.Add(-time.Hour)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	trig := newTestTrigger(publish.New(&cancelAfterFlip{SQLStore: store, cancel: cancel}, nil), "", 3)

	res, err := trig.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PrintsPublished)
	assert.Equal(t, 2, res.EditionsCreated)

	ed, err := store.GetEdition(bg, bob, storage.DayOf(fixedNow))
	require.NoError(t, err, "the follower's edition must exist despite the cancellation")
	ids, err := store.EditionPrintIDs(bg, ed.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{printID}, ids)
}

func TestParseAt(t *testing.T) {
	h, m, err := ParseAt("06:30")
	require.NoError(t, err)
	assert.Equal(t, 6, h)
	assert.Equal(t, 30, m)

	for _, bad := range []string{"", "6", "24:00", "06:60", "aa:bb", "06:3"} {
		_, _, err := ParseAt(bad)
		assert.Error(t, err, bad)
	}
}

func TestNextRun(t *testing.T) {
	before := time.Date(2024, 1, 11, 5, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC), NextRun(before, 6, 0))

	exactly := time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 12, 6, 0, 0, 0, time.UTC), NextRun(exactly, 6, 0))

	local := time.Date(2024, 1, 11, 23, 0, 0, 0, time.FixedZone("UTC-8", -8*3600))
	assert.Equal(t, time.Date(2024, 1, 13, 6, 0, 0, 0, time.UTC), NextRun(local, 6, 0))
}

func TestDailyStopsOnCancel(t *testing.T) {
	trig := newTestTrigger(&scriptedCycle{}, "", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, trig.Daily(ctx, "06:00"))
	assert.Error(t, trig.Daily(ctx, "6am"))
}
