package press

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/printdaily/press/internal/storage"
)

var (
	usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailRE    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	minPasswordLen = 6
	maxBioLen      = 500
)

// Register creates a user, gives them today's edition with the welcome
// prints attached and records ACCOUNT_CREATED.
func (e *Engine) Register(ctx context.Context, reg Registration, ip string) (*User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return nil, invalid("email, password and username are required")
	}
	if !usernameRE.MatchString(reg.Username) {
		return nil, invalid("username must be 3-20 characters, alphanumeric and underscores only")
	}
	if !emailRE.MatchString(reg.Email) {
		return nil, invalid("invalid email format")
	}
	if len(reg.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}
	if strings.EqualFold(reg.Username, e.seeder.SystemUsername()) {
		return nil, ErrConflict
	}
	if reg.DisplayName == "" {
		reg.DisplayName = reg.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), e.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := e.now().UTC()
	u := &storage.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		DisplayName:  reg.DisplayName,
		CreatedAt:    now,
	}
	id, err := e.store.CreateUser(ctx, u)
	if err != nil {
		return nil, translate(err)
	}
	u.ID = id

	// The account exists from here on. A missing first edition is repaired
	// by BackfillWelcome, so it must not fail the registration.
	if err := e.firstEdition(ctx, id, now); err != nil {
		e.logger.Error("Failed to assemble first edition, run the welcome backfill",
			"user_id", id, "error", err)
	}

	e.audit(ctx, storage.AuditAccountCreated, ip, &id)
	e.logger.Info("User registered", "user_id", id, "username", u.Username)
	return userFromInternal(u), nil
}

func (e *Engine) firstEdition(ctx context.Context, userID int64, now time.Time) error {
	editionID, err := e.store.UpsertEdition(ctx, userID, storage.DayOf(now), now)
	if err != nil {
		return fmt.Errorf("create first edition: %w", err)
	}
	if _, err := e.seeder.AttachToEdition(ctx, editionID, now); err != nil {
		return fmt.Errorf("attach welcome prints: %w", err)
	}
	return nil
}

// Authenticate checks an email and password. Failures are recorded as
// LOGIN_FAILED and reported as ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, email, password, ip string) (*User, error) {
	u, err := e.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		e.audit(ctx, storage.AuditLoginFailed, ip, nil)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		e.audit(ctx, storage.AuditLoginFailed, ip, &u.ID)
		return nil, ErrUnauthorized
	}
	return userFromInternal(u), nil
}

// ChangePassword replaces userID's password after verifying the current one.
func (e *Engine) ChangePassword(ctx context.Context, userID int64, current, next, ip string) error {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return translate(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrUnauthorized
	}
	if len(next) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), e.passwordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := e.store.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return translate(err)
	}
	e.audit(ctx, storage.AuditPasswordChanged, ip, &userID)
	return nil
}

// UpdateProfile applies the non-nil fields of p.
func (e *Engine) UpdateProfile(ctx context.Context, userID int64, p Profile) (*User, error) {
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		if utf8.RuneCountInString(*p.Bio) > maxBioLen {
			return nil, invalid("bio must be %d characters or less", maxBioLen)
		}
		u.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if err := e.store.UpdateProfile(ctx, userID, u.DisplayName, u.Bio, u.AvatarURL); err != nil {
		return nil, translate(err)
	}
	return userFromInternal(u), nil
}

// DeleteAccount removes userID and everything that references it, then
// records ACCOUNT_DELETED.
func (e *Engine) DeleteAccount(ctx context.Context, userID int64, ip string) error {
	if err := e.store.DeleteUser(ctx, userID); err != nil {
		return translate(err)
	}
	e.audit(ctx, storage.AuditAccountDeleted, ip, nil)
	e.logger.Info("Account deleted", "user_id", userID)
	return nil
}

// GetUser returns a user by ID.
func (e *Engine) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := e.store.GetUser(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return userFromInternal(u), nil
}

// GetUserByUsername returns a user by username.
func (e *Engine) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	return userFromInternal(u), nil
}
