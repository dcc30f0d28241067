package scheduler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExportFile(t *testing.T) {
	id := uuid.NewString()
	cases := map[string]bool{
		"Summary_" + id + ".xlsx":              true,
		"Cumulative_by_branch_" + id + ".xlsx": true,
		"Summary_" + id + ".xlsm":              false,
		"Summary_G1.xlsx":                      false,
		id + ".xlsx":                           false,
		"notes.txt":                            false,
	}
	for name, want := range cases {
		assert.Equal(t, want, isExportFile(name), name)
	}
}

func TestExportSweeperRunOnce(t *testing.T) {
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	write := func(name string, age time.Duration) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
		mtime := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		return path
	}

	stale := write("Summary_"+uuid.NewString()+".xlsx", 2*time.Hour)
	fresh := write("Cumulative_"+uuid.NewString()+".xlsx", time.Minute)
	foreign := write("merchants.xlsx", 48*time.Hour)

	s := NewExportSweeper(dir, time.Hour, time.Minute, logger)
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)
}

func TestExportSweeperMissingDir(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := NewExportSweeper(filepath.Join(t.TempDir(), "gone"), time.Hour, time.Minute, logger)
	assert.Zero(t, s.RunOnce(context.Background()))
}
