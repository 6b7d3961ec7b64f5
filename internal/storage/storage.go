package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint rejected an insert.
	ErrConflict = errors.New("already exists")
)

// Print status values.
const (
	StatusPending   = "PENDING"
	StatusPublished = "PUBLISHED"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type SQLStore struct {
	db      *sql.DB
	dialect string
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	Bio          string
	AvatarURL    string
	CreatedAt    time.Time
}

// Author is the public summary of a user shown next to a print.
type Author struct {
	ID          int64
	Username    string
	DisplayName string
	AvatarURL   string
}

type Print struct {
	ID          int64
	AuthorID    int64
	Title       string
	Content     string
	Images      []string
	Status      string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// PrintRef is the slice of a print the fan-out needs.
type PrintRef struct {
	ID       int64
	AuthorID int64
}

// AuthoredPrint is a print joined with its author summary.
type AuthoredPrint struct {
	Print
	Author Author
}

type Follow struct {
	FollowerID  int64
	FollowingID int64
}

type Edition struct {
	ID        int64
	UserID    int64
	Date      Day
	CreatedAt time.Time
}

// EditionSummary is an edition with its membership count.
type EditionSummary struct {
	Edition
	PrintCount int
}

type AuditEntry struct {
	ID        int64
	Action    string
	IPAddress string
	UserID    *int64
	CreatedAt time.Time
}

// NewStore opens (creating if needed) the SQLite database at dbPath and
// initializes the schema.
func NewStore(dbPath string) (*SQLStore, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// between a transaction and a concurrent statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return initStore(db, DriverSQLite, sqliteSchema)
}

// NewPostgresStore connects to PostgreSQL through the pgx stdlib driver and
// initializes the schema.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	return initStore(db, DriverPostgres, postgresSchema)
}

// Open selects the backend named by cfg.Database.Driver.
func Open(cfg *Config) (*SQLStore, error) {
	switch cfg.Database.Driver {
	case "", DriverSQLite:
		return NewStore(cfg.Database.Path)
	case DriverPostgres:
		return NewPostgresStore(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func initStore(db *sql.DB, dialect string, schema []string) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect reports the active driver name.
func (s *SQLStore) Dialect() string {
	return s.dialect
}

// q rewrites ? placeholders to $n for PostgreSQL. Queries in this package
// never contain a literal question mark.
func (s *SQLStore) q(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(data), nil
}

func decodeImages(raw string) ([]string, error) {
	images := []string{}
	if raw == "" {
		return images, nil
	}
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	return images, nil
}
