package press

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/printdaily/press/internal/storage"
)

const (
	maxTitleLen   = 200
	maxContentLen = 10000
)

func validatePrint(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return invalid("title and content are required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return invalid("title must be %d characters or less", maxTitleLen)
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return invalid("content must be 10,000 characters or less")
	}
	return nil
}

// CreatePrint queues a print for the next publication cycle.
func (e *Engine) CreatePrint(ctx context.Context, authorID int64, title, content string, images []string) (*Print, error) {
	if err := validatePrint(title, content); err != nil {
		return nil, err
	}
	if _, err := e.store.GetUser(ctx, authorID); err != nil {
		return nil, translate(err)
	}

	p := storage.Print{
		AuthorID:  authorID,
		Title:     title,
		Content:   content,
		Images:    images,
		Status:    storage.StatusPending,
		CreatedAt: e.now().UTC(),
	}
	id, err := e.store.CreatePrint(ctx, &p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	out := printFromInternal(p)
	return &out, nil
}

// GetPrint returns a print by ID.
func (e *Engine) GetPrint(ctx context.Context, id int64) (*Print, error) {
	p, err := e.store.GetPrint(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	out := printFromInternal(*p)
	return &out, nil
}

// pendingOwned loads printID and checks that authorID may still change it.
func (e *Engine) pendingOwned(ctx context.Context, authorID, printID int64) (*storage.Print, error) {
	p, err := e.store.GetPrint(ctx, printID)
	if err != nil {
		return nil, translate(err)
	}
	if p.AuthorID != authorID {
		return nil, ErrForbidden
	}
	if p.Status != storage.StatusPending {
		return nil, ErrPublished
	}
	return p, nil
}

// UpdatePrint edits a pending print owned by authorID.
func (e *Engine) UpdatePrint(ctx context.Context, authorID, printID int64, patch PrintPatch) (*Print, error) {
	p, err := e.pendingOwned(ctx, authorID, printID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if err := validatePrint(p.Title, p.Content); err != nil {
		return nil, err
	}

	err = e.store.UpdatePendingPrint(ctx, printID, p.Title, p.Content, p.Images)
	if errors.Is(err, storage.ErrNotFound) {
		// Published between the read and the write.
		return nil, ErrPublished
	}
	if err != nil {
		return nil, err
	}
	out := printFromInternal(*p)
	return &out, nil
}

// DeletePrint removes a pending print owned by authorID.
func (e *Engine) DeletePrint(ctx context.Context, authorID, printID int64) error {
	if _, err := e.pendingOwned(ctx, authorID, printID); err != nil {
		return err
	}
	err := e.store.DeletePendingPrint(ctx, printID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPublished
	}
	return err
}

// ListPrints returns authorID's prints, newest first. status may be
// "PENDING", "PUBLISHED" or empty for both.
func (e *Engine) ListPrints(ctx context.Context, authorID int64, status string) ([]Print, error) {
	status = strings.ToUpper(status)
	if status != "" && status != storage.StatusPending && status != storage.StatusPublished {
		return nil, invalid("unknown status %q", status)
	}
	prints, err := e.store.ListPrints(ctx, authorID, status)
	if err != nil {
		return nil, err
	}
	out := make([]Print, 0, len(prints))
	for _, p := range prints {
		out = append(out, printFromInternal(p))
	}
	return out, nil
}

// ToggleFollow follows or unfollows followingID and reports the new state.
func (e *Engine) ToggleFollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}
	if _, err := e.store.GetUser(ctx, followingID); err != nil {
		return false, translate(err)
	}
	return e.store.ToggleFollow(ctx, followerID, followingID, e.now().UTC())
}

// ToggleLike likes or unlikes a print and reports the new state.
func (e *Engine) ToggleLike(ctx context.Context, userID, printID int64) (bool, error) {
	if _, err := e.store.GetPrint(ctx, printID); err != nil {
		return false, translate(err)
	}
	return e.store.ToggleLike(ctx, userID, printID, e.now().UTC())
}

// ToggleClip clips or unclips a print and reports the new state.
func (e *Engine) ToggleClip(ctx context.Context, userID, printID int64) (bool, error) {
	if _, err := e.store.GetPrint(ctx, printID); err != nil {
		return false, translate(err)
	}
	return e.store.ToggleClip(ctx, userID, printID, e.now().UTC())
}

// LikeCount returns the number of likes on a print.
func (e *Engine) LikeCount(ctx context.Context, printID int64) (int, error) {
	return e.store.CountLikes(ctx, printID)
}

// Clippings returns the prints userID clipped, most recent first.
func (e *Engine) Clippings(ctx context.Context, userID int64) ([]Print, error) {
	clips, err := e.store.ListClippings(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Print, 0, len(clips))
	for _, ap := range clips {
		out = append(out, authoredPrintFromInternal(ap))
	}
	return out, nil
}
