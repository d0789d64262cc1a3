package files

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"modalsearch/internal/contextutil"
)

// Cleaner purges expired query scratch files. Content uploads are never
// touched; only the scratch area ages out.
type Cleaner struct {
	queryRoot string
	age       time.Duration
	interval  time.Duration
}

// NewCleaner creates a cleaner over the store's query scratch area.
// Files older than age are removed on each sweep.
func NewCleaner(store *DiskStore, age, interval time.Duration) *Cleaner {
	return &Cleaner{
		queryRoot: store.QueryRoot(),
		age:       age,
		interval:  interval,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "query file cleaner starting", "age", c.age, "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "query file cleaner stopped")
			return
		case <-ticker.C:
			removed, err := c.PurgeOlderThan(ctx, c.age)
			if err != nil {
				logger.ErrorContext(ctx, "query file sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "query files purged", "removed", removed)
			}
		}
	}
}

// PurgeOlderThan removes scratch files whose modification time is older
// than age and returns how many were removed. A file that cannot be
// removed is logged and skipped; one bad file never aborts the sweep.
// User directories left empty are removed as well.
func (c *Cleaner) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	cutoff := time.Now().Add(-age)

	userDirs, err := os.ReadDir(c.queryRoot)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, userDir := range userDirs {
		if !userDir.IsDir() {
			continue
		}
		dirPath := filepath.Join(c.queryRoot, userDir.Name())

		entries, err := os.ReadDir(dirPath)
		if err != nil {
			logger.WarnContext(ctx, "failed to read scratch directory", "dir", dirPath, "error", err)
			continue
		}

		remaining := 0
		for _, entry := range entries {
			if entry.IsDir() {
				remaining++
				continue
			}
			info, err := entry.Info()
			if err != nil {
				logger.WarnContext(ctx, "failed to stat scratch file", "file", entry.Name(), "error", err)
				remaining++
				continue
			}
			if !info.ModTime().Before(cutoff) {
				remaining++
				continue
			}
			if err := os.Remove(filepath.Join(dirPath, entry.Name())); err != nil {
				logger.WarnContext(ctx, "failed to remove scratch file", "file", entry.Name(), "error", err)
				remaining++
				continue
			}
			removed++
		}

		if remaining == 0 {
			if err := os.Remove(dirPath); err != nil {
				logger.WarnContext(ctx, "failed to remove empty scratch directory", "dir", dirPath, "error", err)
			}
		}
	}
	return removed, nil
}
