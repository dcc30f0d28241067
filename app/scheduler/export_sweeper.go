// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ExportSweeper removes report export files left behind in the export
// directory, e.g. after a crash between writing and reading a workbook back
type ExportSweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewExportSweeper(dir string, maxAge, interval time.Duration, logger logrus.FieldLogger) *ExportSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ExportSweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger.WithField("module", "export_sweeper"),
		now:      time.Now,
	}
}

// Start launches the sweep loop in a background goroutine and returns a stop function
func (s *ExportSweeper) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	return cancel
}

// RunOnce deletes every export file older than maxAge and returns how many were removed
func (s *ExportSweeper) RunOnce(ctx context.Context) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.WithError(err).WithField("dir", s.dir).Warn("export sweep: read dir failed")
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if entry.IsDir() || !isExportFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("file", path).Warn("export sweep: remove failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("export sweep finished")
	}
	return removed
}

// isExportFile matches the <kind>_<uuid>.xlsx names written by report exports
func isExportFile(name string) bool {
	base, ok := strings.CutSuffix(name, ".xlsx")
	if !ok {
		return false
	}
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return false
	}
	_, err := uuid.Parse(base[idx+1:])
	return err == nil
}
