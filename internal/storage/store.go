package storage

import (
	"context"
	"time"
)

// Store defines the storage interface for PRINT's data layer.
type Store interface {
	Close() error

	// Users
	CreateUser(ctx context.Context, u *User) (int64, error)
	EnsureUser(ctx context.Context, u *User) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, displayName, bio, avatarURL string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	ListUsersExcept(ctx context.Context, excludeUsername string) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Prints
	CreatePrint(ctx context.Context, p *Print) (int64, error)
	GetPrint(ctx context.Context, id int64) (*Print, error)
	FindPrint(ctx context.Context, authorID int64, title, content string) (*Print, error)
	ListPrints(ctx context.Context, authorID int64, status string) ([]Print, error)
	UpdatePendingPrint(ctx context.Context, id int64, title, content string, images []string) error
	DeletePendingPrint(ctx context.Context, id int64) error
	PublishPending(ctx context.Context, at time.Time) (int64, error)
	PublishedSince(ctx context.Context, since time.Time) ([]PrintRef, error)
	PublishedPrintIDs(ctx context.Context, authorID int64, title string) ([]int64, error)

	// Follows
	ToggleFollow(ctx context.Context, followerID, followingID int64, at time.Time) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)
	FollowersOf(ctx context.Context, since time.Time) ([]Follow, error)

	// Editions
	UpsertEdition(ctx context.Context, userID int64, day Day, at time.Time) (int64, error)
	AddToEdition(ctx context.Context, editionID int64, printIDs []int64, at time.Time) (int, error)
	GetEdition(ctx context.Context, userID int64, day Day) (*Edition, error)
	ListEditions(ctx context.Context, userID int64, after Day) ([]EditionSummary, error)
	EditionPrints(ctx context.Context, editionID int64) ([]AuthoredPrint, error)
	EditionPrintIDs(ctx context.Context, editionID int64) ([]int64, error)

	// Likes and clips
	ToggleLike(ctx context.Context, userID, printID int64, at time.Time) (bool, error)
	ToggleClip(ctx context.Context, userID, printID int64, at time.Time) (bool, error)
	CountLikes(ctx context.Context, printID int64) (int, error)
	ListClippings(ctx context.Context, userID int64) ([]AuthoredPrint, error)

	// Audit log
	RecordAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

var _ Store = (*SQLStore)(nil)
