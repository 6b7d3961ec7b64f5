package press

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/printdaily/press/internal/publish"
	"github.com/printdaily/press/internal/reader"
	"github.com/printdaily/press/internal/schedule"
	"github.com/printdaily/press/internal/storage"
	"github.com/printdaily/press/internal/welcome"
)

// Engine is the public API for PRINT's daily publication pipeline.
// It wraps the store, the edition assembler, the publication trigger,
// the edition reader and the welcome seeder.
type Engine struct {
	store     storage.Store
	assembler *publish.Assembler
	trigger   *schedule.Trigger
	reader    *reader.Reader
	seeder    *welcome.Seeder

	logger       *slog.Logger
	now          func() time.Time
	passwordCost int
}

// NewEngine opens the configured database and wires the pipeline.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	cfg = withDefaults(cfg)

	storeCfg := storage.DefaultConfig()
	storeCfg.Database.Driver = cfg.Driver
	storeCfg.Database.Path = cfg.DBPath
	storeCfg.Database.DSN = cfg.DSN

	store, err := storage.Open(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger := cfg.Logger
	assembler := publish.New(store, logger.With("component", "publish"))

	return &Engine{
		store:     store,
		assembler: assembler,
		trigger: schedule.NewTrigger(assembler, schedule.Options{
			Secret:   cfg.CronSecret,
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
			Now:      cfg.Now,
			Logger:   logger.With("component", "schedule"),
		}),
		reader: reader.New(store, logger.With("component", "reader")),
		seeder: welcome.New(store, welcome.Content{
			SystemUsername:    cfg.SystemUsername,
			SystemEmail:       cfg.SystemEmail,
			SystemDisplayName: cfg.SystemDisplayName,
			Title:             cfg.WelcomeTitle,
			Contents:          cfg.WelcomeContents,
		}, logger.With("component", "welcome")),
		logger:       logger,
		now:          cfg.Now,
		passwordCost: cfg.PasswordCost,
	}, nil
}

func withDefaults(cfg EngineConfig) EngineConfig {
	def := DefaultEngineConfig()
	if cfg.Driver == "" {
		cfg.Driver = def.Driver
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.SystemUsername == "" {
		cfg.SystemUsername = def.SystemUsername
	}
	if cfg.SystemEmail == "" {
		cfg.SystemEmail = def.SystemEmail
	}
	if cfg.SystemDisplayName == "" {
		cfg.SystemDisplayName = def.SystemDisplayName
	}
	if cfg.WelcomeTitle == "" {
		cfg.WelcomeTitle = def.WelcomeTitle
	}
	if cfg.WelcomeContents == nil {
		cfg.WelcomeContents = def.WelcomeContents
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = def.PasswordCost
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// Close releases the database connection.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Publish runs one publication cycle with operator access.
func (e *Engine) Publish(ctx context.Context) (*PublishResult, error) {
	res, err := e.trigger.Run(ctx)
	if err != nil {
		return nil, err
	}
	return publishResultFromInternal(res), nil
}

// TriggerPublish runs one publication cycle on behalf of an external caller
// presenting secret. A rejected secret is recorded in the audit log against
// ip and reported as ErrUnauthorized.
func (e *Engine) TriggerPublish(ctx context.Context, secret, ip string) (*PublishResult, error) {
	res, err := e.trigger.Fire(ctx, secret)
	if errors.Is(err, schedule.ErrUnauthorized) {
		e.audit(ctx, storage.AuditPublishUnauthorized, ip, nil)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return publishResultFromInternal(res), nil
}

// ResumePublish redoes today's fan-out without publishing anything new. Use
// it after a cycle failed between publishing and fan-out.
func (e *Engine) ResumePublish(ctx context.Context) (*PublishResult, error) {
	res, err := e.assembler.Fanout(ctx, e.now())
	if err != nil {
		return nil, err
	}
	return publishResultFromInternal(res), nil
}

// RunDaily publishes every day at the HH:MM UTC time in at until ctx is
// cancelled.
func (e *Engine) RunDaily(ctx context.Context, at string) error {
	return e.trigger.Daily(ctx, at)
}

// ListEditions returns the reader's editions after their registration day,
// newest first, creating today's empty edition if needed.
func (e *Engine) ListEditions(ctx context.Context, userID int64) ([]EditionSummary, error) {
	list, err := e.reader.ListEditions(ctx, userID, e.now())
	if err != nil {
		return nil, err
	}
	out := make([]EditionSummary, 0, len(list))
	for _, s := range list {
		out = append(out, EditionSummary{ID: s.ID, Date: s.Date.String(), PostCount: s.PrintCount})
	}
	return out, nil
}

// GetEdition returns userID's edition for date (YYYY-MM-DD) with its prints
// in random order. A day without an edition returns no prints, not an error.
func (e *Engine) GetEdition(ctx context.Context, userID int64, date string) (*Edition, error) {
	day, err := storage.ParseDay(date)
	if err != nil {
		return nil, invalid("%v", err)
	}
	ed, err := e.reader.GetEdition(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out := &Edition{Date: ed.Date.String(), EditionID: ed.EditionID, Prints: make([]Print, 0, len(ed.Prints))}
	for _, ap := range ed.Prints {
		out.Prints = append(out.Prints, authoredPrintFromInternal(ap))
	}
	return out, nil
}

// SeedWelcome ensures the system account and the welcome prints exist.
func (e *Engine) SeedWelcome(ctx context.Context) (*SeedResult, error) {
	ids, err := e.seeder.SeedContent(ctx, e.now())
	if err != nil {
		return nil, err
	}
	return &SeedResult{SystemUsername: e.seeder.SystemUsername(), PrintIDs: ids}, nil
}

// BackfillWelcome attaches the welcome prints to every user's
// registration-day edition.
func (e *Engine) BackfillWelcome(ctx context.Context) (*BackfillResult, error) {
	res, err := e.seeder.Backfill(ctx, e.now())
	if err != nil {
		return nil, err
	}
	return &BackfillResult{Users: res.Users, MembershipsAdded: res.MembershipsAdded}, nil
}

// AuditLog returns the newest audit entries.
func (e *Engine) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := e.store.ListAudit(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntry, 0, len(entries))
	for _, a := range entries {
		out = append(out, AuditEntry{ID: a.ID, Action: a.Action, IPAddress: a.IPAddress, UserID: a.UserID, CreatedAt: a.CreatedAt})
	}
	return out, nil
}

// audit records an event. Failures are logged and never reach the caller.
func (e *Engine) audit(ctx context.Context, action, ip string, userID *int64) {
	if ip == "" {
		ip = "unknown"
	}
	err := e.store.RecordAudit(ctx, storage.AuditEntry{
		Action:    action,
		IPAddress: ip,
		UserID:    userID,
		CreatedAt: e.now().UTC(),
	})
	if err != nil {
		e.logger.Error("Failed to write audit log", "action", action, "error", err)
	}
}

// translate maps storage sentinels onto the package's own.
func translate(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}

func publishResultFromInternal(r *publish.Result) *PublishResult {
	return &PublishResult{
		RunID:            r.RunID,
		Date:             r.Day.String(),
		PrintsPublished:  r.PrintsPublished,
		EditionsCreated:  r.EditionsCreated,
		MembershipsAdded: r.MembershipsAdded,
	}
}

func printFromInternal(p storage.Print) Print {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return Print{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Title:       p.Title,
		Content:     p.Content,
		Images:      images,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		PublishedAt: p.PublishedAt,
	}
}

func authoredPrintFromInternal(ap storage.AuthoredPrint) Print {
	p := printFromInternal(ap.Print)
	p.Author = &Author{
		ID:          ap.Author.ID,
		Username:    ap.Author.Username,
		DisplayName: ap.Author.DisplayName,
		AvatarURL:   ap.Author.AvatarURL,
	}
	return p
}

func userFromInternal(u *storage.User) *User {
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}
