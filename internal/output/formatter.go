package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/printdaily/press"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// OutputPublishResult outputs the result of a publication cycle
func (f *Formatter) OutputPublishResult(result *press.PublishResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(result)
	case FormatText:
		fmt.Fprintf(f.out, "run_id=%s\n", result.RunID)
		fmt.Fprintf(f.out, "date=%s\n", result.Date)
		fmt.Fprintf(f.out, "prints_published=%d\n", result.PrintsPublished)
		fmt.Fprintf(f.out, "editions_created=%d\n", result.EditionsCreated)
		fmt.Fprintf(f.out, "memberships_added=%d\n", result.MembershipsAdded)
		return nil
	case FormatHuman:
		if result.PrintsPublished == 0 && result.EditionsCreated == 0 {
			fmt.Fprintf(f.out, "Nothing to publish for %s\n", result.Date)
			return nil
		}
		fmt.Fprintf(f.out, "Edition of %s\n", result.Date)
		fmt.Fprintf(f.out, "Published %d prints into %d editions\n", result.PrintsPublished, result.EditionsCreated)
		if result.MembershipsAdded > 0 {
			fmt.Fprintf(f.out, "Delivered %d new edition entries\n", result.MembershipsAdded)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputEditionList outputs a reader's edition index
func (f *Formatter) OutputEditionList(editions []press.EditionSummary) error {
	switch f.format {
	case FormatJSON:
		if editions == nil {
			editions = []press.EditionSummary{}
		}
		return json.NewEncoder(f.out).Encode(editions)
	case FormatText:
		for _, e := range editions {
			fmt.Fprintf(f.out, "id=%d\tdate=%s\tprints=%d\n", e.ID, e.Date, e.PostCount)
		}
		return nil
	case FormatHuman:
		if len(editions) == 0 {
			fmt.Fprintln(f.out, "No editions yet")
			return nil
		}
		fmt.Fprintf(f.out, "Editions (%d):\n\n", len(editions))
		for _, e := range editions {
			fmt.Fprintf(f.out, "  %s  %s\n", e.Date, plural(e.PostCount, "print"))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputEdition outputs one edition and its prints
func (f *Formatter) OutputEdition(edition *press.Edition) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(edition)
	case FormatText:
		fmt.Fprintf(f.out, "date=%s\tedition_id=%d\tprints=%d\n", edition.Date, edition.EditionID, len(edition.Prints))
		for _, p := range edition.Prints {
			fmt.Fprintf(f.out, "id=%d\tauthor=%s\ttitle=%s\n", p.ID, authorName(p), p.Title)
		}
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "THE DAILY PRINT - %s\n", edition.Date)
		fmt.Fprintln(f.out, strings.Repeat("=", 70))
		if len(edition.Prints) == 0 {
			fmt.Fprintln(f.out, "Nothing in this edition")
			return nil
		}
		for _, p := range edition.Prints {
			fmt.Fprintf(f.out, "\n%s\n", p.Title)
			fmt.Fprintf(f.out, "by %s\n", authorName(p))
			fmt.Fprintf(f.out, "\n%s\n", truncate(p.Content, 300))
			if len(p.Images) > 0 {
				fmt.Fprintf(f.out, "[%s]\n", plural(len(p.Images), "image"))
			}
			fmt.Fprintln(f.out, strings.Repeat("-", 70))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputPrintList outputs a list of prints
func (f *Formatter) OutputPrintList(prints []press.Print) error {
	switch f.format {
	case FormatJSON:
		if prints == nil {
			prints = []press.Print{}
		}
		return json.NewEncoder(f.out).Encode(prints)
	case FormatText:
		for _, p := range prints {
			fmt.Fprintf(f.out, "id=%d\tstatus=%s\ttitle=%s\tcreated=%s\tpublished=%s\n",
				p.ID, p.Status, p.Title, p.CreatedAt.Format(time.RFC3339), formatTime(p.PublishedAt))
		}
		return nil
	case FormatHuman:
		if len(prints) == 0 {
			fmt.Fprintln(f.out, "No prints")
			return nil
		}
		fmt.Fprintf(f.out, "Prints (%d):\n\n", len(prints))
		for _, p := range prints {
			fmt.Fprintf(f.out, "ID: %d\n", p.ID)
			fmt.Fprintf(f.out, "Title: %s\n", p.Title)
			fmt.Fprintf(f.out, "Status: %s\n", p.Status)
			if p.PublishedAt != nil {
				fmt.Fprintf(f.out, "Published: %s\n", p.PublishedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputSeedResult outputs the welcome seed result
func (f *Formatter) OutputSeedResult(result *press.SeedResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(result)
	case FormatText:
		for i, id := range result.PrintIDs {
			fmt.Fprintf(f.out, "welcome=%d\tid=%d\n", i+1, id)
		}
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "System user: %s\n", result.SystemUsername)
		fmt.Fprintf(f.out, "Welcome prints ready: %d\n", len(result.PrintIDs))
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputBackfillResult outputs the welcome backfill result
func (f *Formatter) OutputBackfillResult(result *press.BackfillResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(result)
	case FormatText:
		fmt.Fprintf(f.out, "users=%d\n", result.Users)
		fmt.Fprintf(f.out, "memberships_added=%d\n", result.MembershipsAdded)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Backfilled %s, %d new edition entries\n", plural(result.Users, "user"), result.MembershipsAdded)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputUser outputs a single user
func (f *Formatter) OutputUser(u *press.User) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(u)
	case FormatText:
		fmt.Fprintf(f.out, "id=%d\tusername=%s\temail=%s\n", u.ID, u.Username, u.Email)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Registered %s (%s) with ID %d\n", u.Username, u.Email, u.ID)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputAuditLog outputs audit entries
func (f *Formatter) OutputAuditLog(entries []press.AuditEntry) error {
	switch f.format {
	case FormatJSON:
		if entries == nil {
			entries = []press.AuditEntry{}
		}
		return json.NewEncoder(f.out).Encode(entries)
	case FormatText, FormatHuman:
		if f.format == FormatHuman && len(entries) == 0 {
			fmt.Fprintln(f.out, "Audit log is empty")
			return nil
		}
		for _, e := range entries {
			user := "-"
			if e.UserID != nil {
				user = fmt.Sprintf("%d", *e.UserID)
			}
			fmt.Fprintf(f.out, "%s\t%s\tip=%s\tuser=%s\n", e.CreatedAt.Format(time.RFC3339), e.Action, e.IPAddress, user)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Error outputs an error message to stderr
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintf(f.err, format+"\n", args...)
}

// Warning outputs a warning message to stderr
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintf(f.err, "Warning: "+format+"\n", args...)
}

func authorName(p press.Print) string {
	if p.Author == nil {
		return fmt.Sprintf("user %d", p.AuthorID)
	}
	if p.Author.DisplayName != "" {
		return p.Author.DisplayName
	}
	return p.Author.Username
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// formatTime formats a time pointer for output
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// truncate truncates a string to maxLen runes
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
