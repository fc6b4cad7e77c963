// internal/report/writer.go
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/zhanfa/internal/core"
	"github.com/newthinker/zhanfa/internal/storage/archive"
	"github.com/newthinker/zhanfa/internal/tactic"
)

// Path names a report: <YYYYMM>/<tactic>_<YYYYMMDD_HHMMSS>.csv
func Path(tacticName string, at time.Time) string {
	return at.Format("200601") + "/" + tacticName + "_" + at.Format("20060102_150405") + ".csv"
}

// Writer renders reports into an archive
type Writer struct {
	store archive.Storage
	loc   *time.Location
	now   func() time.Time
}

// NewWriter creates a writer stamping reports in loc
func NewWriter(store archive.Storage, loc *time.Location) *Writer {
	if loc == nil {
		loc = time.Local
	}
	return &Writer{store: store, loc: loc, now: time.Now}
}

// Write stores rows and returns the report location. No file is created for
// an empty row set; the location is then "".
func (w *Writer) Write(ctx context.Context, t *tactic.Tactic, rows []core.ScreenResult) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	data, err := Render(t, rows)
	if err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}

	path, err := w.freePath(ctx, t.Name, w.now().In(w.loc))
	if err != nil {
		return "", core.WrapError(core.ErrReportFailed, err)
	}
	if err := w.store.Write(ctx, path, data); err != nil {
		return "", core.WrapError(core.ErrReportFailed, fmt.Errorf("%s: %w", path, err))
	}
	return w.store.Location(path), nil
}

// maxPathAttempts bounds the search for an unused report name
const maxPathAttempts = 60

// freePath returns the report path for at, moving forward a second at a time
// while an earlier report already holds the name.
func (w *Writer) freePath(ctx context.Context, tacticName string, at time.Time) (string, error) {
	for i := 0; i < maxPathAttempts; i++ {
		path := Path(tacticName, at.Add(time.Duration(i)*time.Second))
		exists, err := w.store.Exists(ctx, path)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free report name for %s at %s", tacticName, at.Format(time.RFC3339))
}
