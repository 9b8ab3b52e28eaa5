// Package organize relocates already-downloaded images into per-event
// folders named by a sanitized event field.
package organize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/premkondru/InstagramPostsScrapper/pkg/table"
	"github.com/premkondru/InstagramPostsScrapper/pkg/utils"
)

// Required input columns, matched case-insensitively.
const (
	ImageColumn = "image"
	EventColumn = "event"
)

// Summary counts organize outcomes for the operator-facing report.
type Summary struct {
	Copied  int
	Missing int
	Skipped int // rows with an empty image field
}

// Organizer copies images from a flat images directory into
// EventsDir/<sanitized event>/<basename>.
type Organizer struct {
	ImagesDir string
	EventsDir string
	DryRun    bool // log actions without copying
	Log       *logrus.Logger
}

// Run copies every row's image into its event folder. Missing source files
// are counted and logged, never fatal; only a missing required column or an
// uncreatable destination root aborts.
func (o *Organizer) Run(tbl *table.Table) (Summary, error) {
	imgCol, err := tbl.RequireColumn(ImageColumn)
	if err != nil {
		return Summary{}, err
	}
	evtCol, err := tbl.RequireColumn(EventColumn)
	if err != nil {
		return Summary{}, err
	}

	if err := os.MkdirAll(o.EventsDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("%w: creating events directory '%s': %w", utils.ErrFilesystem, o.EventsDir, err)
	}

	var summary Summary
	for i := range tbl.Rows {
		rowLog := o.Log.WithField("row", i)

		rawImg := tbl.Get(i, imgCol)
		if rawImg == "" {
			rowLog.Warn("Empty image field; skipping")
			summary.Skipped++
			continue
		}

		// The image field may carry a path; only the basename is looked up
		// inside the images directory.
		base := filepath.Base(rawImg)
		src := filepath.Join(o.ImagesDir, base)
		if fi, err := os.Stat(src); err != nil || !fi.Mode().IsRegular() {
			rowLog.Warnf("Not found: %s", src)
			summary.Missing++
			continue
		}

		folder := utils.SanitizeName(tbl.Get(i, evtCol), 0)
		destDir := filepath.Join(o.EventsDir, folder)
		dest := filepath.Join(destDir, base)

		if o.DryRun {
			rowLog.Infof("Would copy: %s -> %s", src, dest)
			summary.Copied++
			continue
		}

		if err := os.MkdirAll(destDir, 0o755); err != nil {
			rowLog.Warnf("Failed to create %s: %v", destDir, err)
			continue
		}
		if err := copyFile(src, dest); err != nil {
			rowLog.Warnf("Failed copy %s -> %s: %v", src, dest, err)
			continue
		}
		rowLog.Infof("Copied: %s -> %s", src, dest)
		summary.Copied++
	}

	o.Log.WithFields(logrus.Fields{
		"copied":  summary.Copied,
		"missing": summary.Missing,
		"skipped": summary.Skipped,
	}).Info("Organize complete")
	return summary, nil
}

// copyFile copies src to dst, carrying over the source's modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(dst)
		return copyErr
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}
