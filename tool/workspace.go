package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const workDirPrefix = "extracted_"

// EnsureUploadRoot creates the uploads root folder if it does not exist.
func EnsureUploadRoot(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create upload folder %s: %w", root, err)
	}
	return nil
}

// NewWorkDir creates the extraction directory for one upload session. The
// session id keeps concurrent uploads collision-free.
func NewWorkDir(root, sessionID string) (string, error) {
	dir := filepath.Join(root, workDirPrefix+sessionID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	return dir, nil
}

// CleanupSession removes the extraction directory and the uploaded archive.
// Both removals are idempotent: already-absent paths are not an error.
func CleanupSession(workDir, archivePath string) {
	if workDir != "" {
		if err := os.RemoveAll(workDir); err != nil {
			DefaultLogger.Errorf("[Reaper] Failed to remove work dir %s: %v", workDir, err)
		}
	}
	if archivePath != "" {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			DefaultLogger.Errorf("[Reaper] Failed to remove archive %s: %v", archivePath, err)
		}
	}
}

// SweepOrphans removes leftover session artifacts under the uploads root that
// are older than maxAge. Live sessions are recent, so they are never touched.
// This is a safety net for sessions killed mid-flight (crash, SIGKILL).
func SweepOrphans(root string, maxAge time.Duration) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			DefaultLogger.Errorf("[Sweeper] Failed to read upload folder %s: %v", root, err)
		}
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		target := filepath.Join(root, entry.Name())
		if entry.IsDir() && strings.HasPrefix(entry.Name(), workDirPrefix) {
			DefaultLogger.Warnf("[Sweeper] Removing orphaned work dir: %s", target)
			if err := os.RemoveAll(target); err != nil {
				DefaultLogger.Errorf("[Sweeper] Failed to remove %s: %v", target, err)
			}
			continue
		}
		if !entry.IsDir() {
			DefaultLogger.Warnf("[Sweeper] Removing orphaned upload: %s", target)
			if err := os.Remove(target); err != nil {
				DefaultLogger.Errorf("[Sweeper] Failed to remove %s: %v", target, err)
			}
		}
	}
}

// StartSweeper schedules SweepOrphans on the given cron expression and returns the
// started scheduler so the caller can Stop it on shutdown.
func StartSweeper(root, schedule string, maxAge time.Duration) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { SweepOrphans(root, maxAge) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
