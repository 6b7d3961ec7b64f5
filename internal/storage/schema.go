package storage

// sqliteSchema creates the PRINT tables on SQLite. Foreign keys carry no
// ON DELETE CASCADE: account deletion removes dependents explicitly, in order.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS prints (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    author_id INTEGER NOT NULL REFERENCES users(id),
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    images TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'PUBLISHED')),
    created_at DATETIME NOT NULL,
    published_at DATETIME
)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_author ON prints(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_status ON prints(status)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_published ON prints(published_at)`,
	`CREATE TABLE IF NOT EXISTS follows (
    follower_id INTEGER NOT NULL REFERENCES users(id),
    following_id INTEGER NOT NULL REFERENCES users(id),
    created_at DATETIME NOT NULL,
    PRIMARY KEY (follower_id, following_id),
    CHECK (follower_id <> following_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id)`,
	`CREATE TABLE IF NOT EXISTS editions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id),
    edition_date TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    UNIQUE(user_id, edition_date)
)`,
	`CREATE TABLE IF NOT EXISTS edition_prints (
    edition_id INTEGER NOT NULL REFERENCES editions(id),
    print_id INTEGER NOT NULL REFERENCES prints(id),
    added_at DATETIME NOT NULL,
    PRIMARY KEY (edition_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_edition_prints_print ON edition_prints(print_id)`,
	`CREATE TABLE IF NOT EXISTS likes (
    user_id INTEGER NOT NULL REFERENCES users(id),
    print_id INTEGER NOT NULL REFERENCES prints(id),
    created_at DATETIME NOT NULL,
    PRIMARY KEY (user_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_print ON likes(print_id)`,
	`CREATE TABLE IF NOT EXISTS clips (
    user_id INTEGER NOT NULL REFERENCES users(id),
    print_id INTEGER NOT NULL REFERENCES prints(id),
    created_at DATETIME NOT NULL,
    PRIMARY KEY (user_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_clips_print ON clips(print_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    action TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    user_id INTEGER,
    created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at DESC)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS prints (
    id BIGSERIAL PRIMARY KEY,
    author_id BIGINT NOT NULL REFERENCES users(id),
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    images TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'PUBLISHED')),
    created_at TIMESTAMPTZ NOT NULL,
    published_at TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_author ON prints(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_status ON prints(status)`,
	`CREATE INDEX IF NOT EXISTS idx_prints_published ON prints(published_at)`,
	`CREATE TABLE IF NOT EXISTS follows (
    follower_id BIGINT NOT NULL REFERENCES users(id),
    following_id BIGINT NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (follower_id, following_id),
    CHECK (follower_id <> following_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id)`,
	`CREATE TABLE IF NOT EXISTS editions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    edition_date TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE(user_id, edition_date)
)`,
	`CREATE TABLE IF NOT EXISTS edition_prints (
    edition_id BIGINT NOT NULL REFERENCES editions(id),
    print_id BIGINT NOT NULL REFERENCES prints(id),
    added_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (edition_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_edition_prints_print ON edition_prints(print_id)`,
	`CREATE TABLE IF NOT EXISTS likes (
    user_id BIGINT NOT NULL REFERENCES users(id),
    print_id BIGINT NOT NULL REFERENCES prints(id),
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_print ON likes(print_id)`,
	`CREATE TABLE IF NOT EXISTS clips (
    user_id BIGINT NOT NULL REFERENCES users(id),
    print_id BIGINT NOT NULL REFERENCES prints(id),
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, print_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_clips_print ON clips(print_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
    id BIGSERIAL PRIMARY KEY,
    action TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    user_id BIGINT,
    created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at DESC)`,
}
