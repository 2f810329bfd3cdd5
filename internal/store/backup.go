package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	backupPrefix = "scrobbles_"
	backupSuffix = ".sqlite"
)

// Backup checkpoints the WAL, writes a consistent copy of the database
// into dir, verifies it and removes all but the newest keep backups. It
// returns the path of the new backup.
func (s *Store) Backup(ctx context.Context, dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("failed to checkpoint wal: %w", err)
	}

	name := backupPrefix + s.now().UTC().Format("20060102_150405") + backupSuffix
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := verifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return "", err
	}

	if keep > 0 {
		if err := rotateBackups(dir, keep); err != nil {
			return path, err
		}
	}

	return path, nil
}

func verifyBackup(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to verify backup: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup failed integrity check: %s", result)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scrobble").Scan(&count); err != nil {
		return fmt.Errorf("failed to verify backup: %w", err)
	}
	return nil
}

// Backups lists backups in dir, newest first.
func Backups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	// Timestamps in the names sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

func rotateBackups(dir string, keep int) error {
	paths, err := Backups(dir)
	if err != nil {
		return err
	}
	for _, p := range paths[min(keep, len(paths)):] {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
	}
	return nil
}
