package press

import (
	"log/slog"
	"time"
)

// EngineConfig configures the PRINT engine. Zero values take the defaults
// from DefaultEngineConfig.
type EngineConfig struct {
	Driver string // "sqlite" (default) or "postgres"
	DBPath string // SQLite file
	DSN    string // PostgreSQL connection string

	CronSecret    string // empty disables the trigger check
	RetryAttempts uint
	RetryDelay    time.Duration

	SystemUsername    string
	SystemEmail       string
	SystemDisplayName string
	WelcomeTitle      string
	WelcomeContents   []string

	PasswordCost int // bcrypt cost for new passwords

	Logger *slog.Logger
	Now    func() time.Time // clock override for tests
}

// User is a registered reader and writer.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Author is the public summary of a print's author.
type Author struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Print is a user-authored post. It is editable only while PENDING.
type Print struct {
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"authorId"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Images      []string   `json:"images"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Author      *Author    `json:"author,omitempty"`
}

// PrintPatch carries the fields of an update; nil leaves a field unchanged.
type PrintPatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Images  *[]string `json:"images,omitempty"`
}

// EditionSummary is one entry of a reader's edition index.
type EditionSummary struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	PostCount int    `json:"postCount"`
}

// Edition is the content delivered to one reader on one day. EditionID is
// omitted when no edition exists for the day.
type Edition struct {
	Date      string  `json:"date"`
	EditionID int64   `json:"editionId,omitempty"`
	Prints    []Print `json:"prints"`
}

// PublishResult reports a publication cycle.
type PublishResult struct {
	RunID            string `json:"runId"`
	Date             string `json:"date"`
	PrintsPublished  int    `json:"printsPublished"`
	EditionsCreated  int    `json:"editionsCreated"`
	MembershipsAdded int    `json:"membershipsAdded"`
}

// SeedResult reports the welcome content after seeding.
type SeedResult struct {
	SystemUsername string  `json:"systemUsername"`
	PrintIDs       []int64 `json:"printIds"`
}

// BackfillResult reports a welcome backfill run.
type BackfillResult struct {
	Users            int `json:"users"`
	MembershipsAdded int `json:"membershipsAdded"`
}

// Registration is the input to Engine.Register.
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// Profile is the editable part of a user.
type Profile struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// AuditEntry is a security-relevant event.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ipAddress"`
	UserID    *int64    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
