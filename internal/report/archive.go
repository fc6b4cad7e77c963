// internal/report/archive.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/zhanfa/internal/storage/archive"
)

const stampLayout = "20060102_150405"

// Entry is a report found in the archive
type Entry struct {
	Path   string
	Tactic string
	At     time.Time
}

// ParsePath recovers the tactic and timestamp from a path built by Path.
// Other objects in the archive are rejected.
func ParsePath(p string, loc *time.Location) (Entry, bool) {
	if loc == nil {
		loc = time.Local
	}
	dir, file := path.Split(p)
	stem, ok := strings.CutSuffix(file, ".csv")
	if !ok || len(stem) < len(stampLayout)+2 {
		return Entry{}, false
	}
	cut := len(stem) - len(stampLayout)
	if stem[cut-1] != '_' {
		return Entry{}, false
	}
	at, err := time.ParseInLocation(stampLayout, stem[cut:], loc)
	if err != nil {
		return Entry{}, false
	}
	if month := strings.TrimSuffix(dir, "/"); month != at.Format("200601") {
		return Entry{}, false
	}
	return Entry{Path: p, Tactic: stem[:cut-1], At: at}, true
}

// Archive browses the reports held in a storage
type Archive struct {
	store archive.Storage
	loc   *time.Location
}

// NewArchive wraps store; loc is the zone report names were stamped in
func NewArchive(store archive.Storage, loc *time.Location) *Archive {
	if loc == nil {
		loc = time.Local
	}
	return &Archive{store: store, loc: loc}
}

// List returns reports oldest first. month (YYYYMM) and tacticName narrow
// the result when set.
func (a *Archive) List(ctx context.Context, month, tacticName string) ([]Entry, error) {
	prefix := ""
	if month != "" {
		if _, err := time.Parse("200601", month); err != nil {
			return nil, fmt.Errorf("month %q: want YYYYMM", month)
		}
		prefix = month + "/"
	}

	paths, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	var entries []Entry
	for _, p := range paths {
		e, ok := ParsePath(p, a.loc)
		if !ok || (tacticName != "" && e.Tactic != tacticName) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].At.Equal(entries[j].At) {
			return entries[i].At.Before(entries[j].At)
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Read returns the report body without its byte order mark
func (a *Archive) Read(ctx context.Context, p string) ([]byte, error) {
	if _, ok := ParsePath(p, a.loc); !ok {
		return nil, fmt.Errorf("%q is not a report path", p)
	}
	data, err := a.store.Read(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

// Prune keeps the newest keep reports of every tactic (or only of
// tacticName when set) and deletes the rest. It returns what was deleted.
func (a *Archive) Prune(ctx context.Context, keep int, tacticName string) ([]Entry, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	entries, err := a.List(ctx, "", tacticName)
	if err != nil {
		return nil, err
	}

	byTactic := make(map[string][]Entry)
	for _, e := range entries {
		byTactic[e.Tactic] = append(byTactic[e.Tactic], e)
	}

	var deleted []Entry
	for _, e := range entries {
		group := byTactic[e.Tactic]
		if len(group) <= keep {
			continue
		}
		byTactic[e.Tactic] = group[1:]
		if err := a.store.Delete(ctx, e.Path); err != nil {
			return deleted, fmt.Errorf("deleting %s: %w", e.Path, err)
		}
		deleted = append(deleted, e)
	}
	return deleted, nil
}

// Location describes where a report is stored
func (a *Archive) Location(p string) string {
	return a.store.Location(p)
}
