// Package welcome seeds the onboarding prints authored by the system account
// and attaches them to readers' first editions.
package welcome

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/printdaily/press/internal/storage"
)

// Store is the slice of the data layer the seeder needs.
type Store interface {
	EnsureUser(ctx context.Context, u *storage.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
	ListUsersExcept(ctx context.Context, excludeUsername string) ([]storage.User, error)
	CreatePrint(ctx context.Context, p *storage.Print) (int64, error)
	FindPrint(ctx context.Context, authorID int64, title, content string) (*storage.Print, error)
	PublishedPrintIDs(ctx context.Context, authorID int64, title string) ([]int64, error)
	UpsertEdition(ctx context.Context, userID int64, day storage.Day, at time.Time) (int64, error)
	AddToEdition(ctx context.Context, editionID int64, printIDs []int64, at time.Time) (int, error)
}

// Content identifies the system account and the welcome prints it authors.
type Content struct {
	SystemUsername    string
	SystemEmail       string
	SystemDisplayName string
	Title             string
	Contents          []string
}

// ContentFromConfig reads the welcome section of cfg.
func ContentFromConfig(cfg *storage.Config) Content {
	return Content{
		SystemUsername:    cfg.Welcome.SystemUsername,
		SystemEmail:       cfg.Welcome.SystemEmail,
		SystemDisplayName: cfg.Welcome.SystemDisplayName,
		Title:             cfg.Welcome.Title,
		Contents:          cfg.Welcome.Contents,
	}
}

// BackfillResult summarises a backfill run.
type BackfillResult struct {
	Users            int
	MembershipsAdded int
}

type Seeder struct {
	store   Store
	content Content
	logger  *slog.Logger
}

func New(store Store, content Content, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, content: content, logger: logger}
}

// SystemUsername is the username reserved for the welcome author.
func (s *Seeder) SystemUsername() string {
	return s.content.SystemUsername
}

// SeedContent ensures the system account and every welcome print exist,
// matching prints by author, title and exact content. It returns the welcome
// print IDs in content order.
func (s *Seeder) SeedContent(ctx context.Context, now time.Time) ([]int64, error) {
	now = now.UTC()
	systemID, err := s.ensureSystemUser(ctx, now)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(s.content.Contents))
	for i, body := range s.content.Contents {
		existing, err := s.store.FindPrint(ctx, systemID, s.content.Title, body)
		if err == nil {
			s.logger.Debug("Welcome print already exists", "index", i+1, "print_id", existing.ID)
			ids = append(ids, existing.ID)
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("find welcome print %d: %w", i+1, err)
		}

		id, err := s.store.CreatePrint(ctx, &storage.Print{
			AuthorID:    systemID,
			Title:       s.content.Title,
			Content:     body,
			Status:      storage.StatusPublished,
			CreatedAt:   now,
			PublishedAt: &now,
		})
		if err != nil {
			return nil, fmt.Errorf("create welcome print %d: %w", i+1, err)
		}
		s.logger.Info("Created welcome print", "index", i+1, "print_id", id)
		ids = append(ids, id)
	}
	return ids, nil
}

// ensureSystemUser finds or creates the system account. Its password is
// random and never disclosed, so nobody can sign in as it.
func (s *Seeder) ensureSystemUser(ctx context.Context, now time.Time) (int64, error) {
	if u, err := s.store.GetUserByUsername(ctx, s.content.SystemUsername); err == nil {
		return u.ID, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("load system user: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return 0, fmt.Errorf("generate system password: %w", err)
	}
	// bcrypt only reads the first 72 bytes; hex of 32 bytes is 64.
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash system password: %w", err)
	}

	id, err := s.store.EnsureUser(ctx, &storage.User{
		Username:     s.content.SystemUsername,
		Email:        s.content.SystemEmail,
		PasswordHash: string(hash),
		DisplayName:  s.content.SystemDisplayName,
		CreatedAt:    now,
	})
	if err != nil {
		return 0, fmt.Errorf("ensure system user: %w", err)
	}
	s.logger.Info("System user ready", "user_id", id, "username", s.content.SystemUsername)
	return id, nil
}

// AttachToEdition adds every published welcome print to editionID, skipping
// ones already present. Without seeded content it does nothing.
func (s *Seeder) AttachToEdition(ctx context.Context, editionID int64, now time.Time) (int, error) {
	ids, err := s.welcomePrintIDs(ctx)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	added, err := s.store.AddToEdition(ctx, editionID, ids, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("attach welcome prints: %w", err)
	}
	return added, nil
}

func (s *Seeder) welcomePrintIDs(ctx context.Context) ([]int64, error) {
	sys, err := s.store.GetUserByUsername(ctx, s.content.SystemUsername)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load system user: %w", err)
	}
	ids, err := s.store.PublishedPrintIDs(ctx, sys.ID, s.content.Title)
	if err != nil {
		return nil, fmt.Errorf("load welcome prints: %w", err)
	}
	return ids, nil
}

// Backfill gives every non-system user an edition on their registration day
// holding the welcome prints. Re-running it adds nothing new.
func (s *Seeder) Backfill(ctx context.Context, now time.Time) (*BackfillResult, error) {
	ids, err := s.welcomePrintIDs(ctx)
	if err != nil {
		return nil, err
	}
	res := &BackfillResult{}
	if len(ids) == 0 {
		s.logger.Warn("No welcome prints found, run the seed first")
		return res, nil
	}

	users, err := s.store.ListUsersExcept(ctx, s.content.SystemUsername)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	now = now.UTC()
	for _, u := range users {
		day := storage.DayOf(u.CreatedAt)
		editionID, err := s.store.UpsertEdition(ctx, u.ID, day, now)
		if err != nil {
			return nil, fmt.Errorf("upsert edition for user %d: %w", u.ID, err)
		}
		added, err := s.store.AddToEdition(ctx, editionID, ids, now)
		if err != nil {
			return nil, fmt.Errorf("attach welcome prints for user %d: %w", u.ID, err)
		}
		res.Users++
		res.MembershipsAdded += added
		s.logger.Debug("Backfilled welcome edition", "user_id", u.ID, "username", u.Username, "date", day, "added", added)
	}

	s.logger.Info("Welcome backfill completed", "users", res.Users, "memberships_added", res.MembershipsAdded)
	return res, nil
}
