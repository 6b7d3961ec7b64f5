package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/printdaily/press"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newTestEngine(t *testing.T) (*press.Engine, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	engine, err := press.NewEngine(press.EngineConfig{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		RetryDelay:   time.Millisecond,
		PasswordCost: bcrypt.MinCost,
		Now:          clock.Now,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine, clock
}

func registerUser(t *testing.T, engine *press.Engine, username string) int64 {
	t.Helper()
	u, err := engine.Register(context.Background(), press.Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return u.ID
}

// connect serves srv over an in-memory transport and returns a client session.
func connect(t *testing.T, srv *server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := srv.newMCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		cs.Close()
		ss.Wait()
	})
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return v
}

func TestToolsList(t *testing.T) {
	engine, _ := newTestEngine(t)
	cs := connect(t, newServer(engine, 0))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{
		"audit_log", "edition_get", "editions_list", "print_create", "prints_list",
		"publish_now", "publish_resume", "schedule_status", "welcome_backfill", "welcome_seed",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestPublishNowEmpty(t *testing.T) {
	engine, _ := newTestEngine(t)
	cs := connect(t, newServer(engine, 0))

	got := decodeResult[press.PublishResult](t, callTool(t, cs, "publish_now", nil))
	if got.PrintsPublished != 0 || got.EditionsCreated != 0 {
		t.Errorf("result = %+v", got)
	}
	if got.Date != "2024-01-10" {
		t.Errorf("date = %s", got.Date)
	}
}

func TestPrintCreatePublishAndRead(t *testing.T) {
	engine, clock := newTestEngine(t)
	uid := registerUser(t, engine, "alice")
	registerUser(t, engine, "bob")
	cs := connect(t, newServer(engine, uid))

	created := decodeResult[press.Print](t, callTool(t, cs, "print_create", map[string]any{
		"title":   "Hello",
		"content": "First print",
	}))
	if created.Status != "PENDING" || created.AuthorID != uid {
		t.Fatalf("created = %+v", created)
	}

	pending := decodeResult[[]press.Print](t, callTool(t, cs, "prints_list", map[string]any{"status": "pending"}))
	if len(pending) != 1 {
		t.Fatalf("pending prints = %d, want 1", len(pending))
	}

	clock.t = time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC)
	pub := decodeResult[press.PublishResult](t, callTool(t, cs, "publish_now", nil))
	if pub.PrintsPublished != 1 || pub.EditionsCreated != 1 {
		t.Fatalf("publish = %+v", pub)
	}

	editions := decodeResult[[]press.EditionSummary](t, callTool(t, cs, "editions_list", nil))
	if len(editions) != 1 || editions[0].Date != "2024-01-11" || editions[0].PostCount != 1 {
		t.Fatalf("editions = %+v", editions)
	}

	ed := decodeResult[press.Edition](t, callTool(t, cs, "edition_get", map[string]any{"date": "2024-01-11"}))
	if len(ed.Prints) != 1 || ed.Prints[0].Title != "Hello" {
		t.Fatalf("edition = %+v", ed)
	}

	// Bob does not follow Alice, so his edition stays empty.
	bobEd := decodeResult[press.Edition](t, callTool(t, cs, "edition_get", map[string]any{"date": "2024-01-11", "username": "bob"}))
	if len(bobEd.Prints) != 0 {
		t.Errorf("bob's edition has %d prints, want 0", len(bobEd.Prints))
	}

	resumed := decodeResult[press.PublishResult](t, callTool(t, cs, "publish_resume", nil))
	if resumed.PrintsPublished != 0 || resumed.MembershipsAdded != 0 {
		t.Errorf("resume = %+v", resumed)
	}
}

func TestEditionGetErrors(t *testing.T) {
	engine, _ := newTestEngine(t)
	uid := registerUser(t, engine, "carol")
	cs := connect(t, newServer(engine, uid))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"bad date", map[string]any{"date": "10/01/2024"}},
		{"unknown user", map[string]any{"date": "2024-01-10", "username": "nobody"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := callTool(t, cs, "edition_get", tt.args); !res.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, res))
			}
		})
	}
}

func TestNoDefaultUser(t *testing.T) {
	engine, _ := newTestEngine(t)
	cs := connect(t, newServer(engine, 0))

	res := callTool(t, cs, "editions_list", nil)
	if !res.IsError {
		t.Fatal("expected error without a default user")
	}
	if !strings.Contains(resultText(t, res), "no default user") {
		t.Errorf("error = %s", resultText(t, res))
	}
}

func TestPrintCreateValidation(t *testing.T) {
	engine, _ := newTestEngine(t)
	uid := registerUser(t, engine, "dave")
	cs := connect(t, newServer(engine, uid))

	res := callTool(t, cs, "print_create", map[string]any{"title": " ", "content": "x"})
	if !res.IsError {
		t.Fatal("expected validation error")
	}
}

func TestWelcomeSeedAndBackfill(t *testing.T) {
	engine, _ := newTestEngine(t)
	registerUser(t, engine, "erin")
	cs := connect(t, newServer(engine, 0))

	seed := decodeResult[press.SeedResult](t, callTool(t, cs, "welcome_seed", nil))
	if seed.SystemUsername != "print_team" || len(seed.PrintIDs) != 4 {
		t.Fatalf("seed = %+v", seed)
	}
	backfill := decodeResult[press.BackfillResult](t, callTool(t, cs, "welcome_backfill", nil))
	if backfill.Users != 1 || backfill.MembershipsAdded != 4 {
		t.Errorf("backfill = %+v", backfill)
	}
}

func TestAuditLog(t *testing.T) {
	engine, _ := newTestEngine(t)
	registerUser(t, engine, "frank")
	cs := connect(t, newServer(engine, 0))

	entries := decodeResult[[]press.AuditEntry](t, callTool(t, cs, "audit_log", map[string]any{"limit": 5}))
	if len(entries) != 1 || entries[0].Action != "ACCOUNT_CREATED" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestScheduleStatus(t *testing.T) {
	engine, _ := newTestEngine(t)

	cs := connect(t, newServer(engine, 0))
	off := decodeResult[scheduleStatus](t, callTool(t, cs, "schedule_status", nil))
	if off.Enabled {
		t.Errorf("status without scheduler = %+v", off)
	}

	srv := newServer(engine, 0)
	srv.scheduler = newScheduler(engine, "06:30")
	srv.scheduler.now = func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) }
	on := decodeResult[scheduleStatus](t, callTool(t, connect(t, srv), "schedule_status", nil))
	if !on.Enabled || on.NextRun != "2024-01-11T06:30:00Z" {
		t.Errorf("status = %+v", on)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	engine, _ := newTestEngine(t)

	bad := newScheduler(engine, "25:00")
	if err := bad.start(context.Background()); err == nil {
		t.Fatal("expected error for invalid time")
	}
	bad.stop()

	s := newScheduler(engine, "06:00")
	if err := s.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stopped := make(chan struct{})
	go func() {
		s.stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
