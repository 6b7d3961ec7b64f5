package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Set PRESS_TEST_POSTGRES_DSN to run against a scratch PostgreSQL database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("PRESS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PRESS_TEST_POSTGRES_DSN not set")
	}
	store, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000)
	now := time.Now().UTC().Truncate(time.Second)

	author, err := store.CreateUser(ctx, &User{Username: "pa" + suffix, Email: "pa" + suffix + "@example.com", PasswordHash: "x", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	reader, err := store.CreateUser(ctx, &User{Username: "pr" + suffix, Email: "pr" + suffix + "@example.com", PasswordHash: "x", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	defer store.DeleteUser(ctx, author)
	defer store.DeleteUser(ctx, reader)

	if _, err := store.CreateUser(ctx, &User{Username: "pa" + suffix, Email: "dup" + suffix + "@example.com", PasswordHash: "x", CreatedAt: now}); err != ErrConflict {
		t.Errorf("duplicate username: got %v, want ErrConflict", err)
	}

	printID, err := store.CreatePrint(ctx, &Print{AuthorID: author, Title: "pg", Content: "body", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreatePrint failed: %v", err)
	}
	if _, err := store.ToggleFollow(ctx, reader, author, now); err != nil {
		t.Fatalf("ToggleFollow failed: %v", err)
	}
	edition, err := store.UpsertEdition(ctx, reader, DayOf(now), now)
	if err != nil {
		t.Fatalf("UpsertEdition failed: %v", err)
	}
	added, err := store.AddToEdition(ctx, edition, []int64{printID, printID}, now)
	if err != nil {
		t.Fatalf("AddToEdition failed: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	list, err := store.ListEditions(ctx, reader, "2000-01-01")
	if err != nil {
		t.Fatalf("ListEditions failed: %v", err)
	}
	if len(list) != 1 || list[0].PrintCount != 1 {
		t.Errorf("ListEditions = %+v", list)
	}
}
