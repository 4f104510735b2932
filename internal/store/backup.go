package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupDirName = "backups"

func (s Store) BackupDir() string {
	return filepath.Join(s.Dir, backupDirName)
}

// WriteBackup snapshots the current collection into backups/events-<stamp>.json.
func (s Store) WriteBackup(ctx context.Context, now time.Time) (string, error) {
	events, snap, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("events-%s-r%d.json", now.UTC().Format("20060102T150405Z"), snap.Revision)
	path := filepath.Join(s.BackupDir(), name)
	if err := atomicWriteFile(s.BackupDir(), "events.*.json.tmp", path, append(b, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ListBackups returns backup files oldest first.
func (s Store) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(s.BackupDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, "events-") && strings.HasSuffix(n, ".json") {
			out = append(out, filepath.Join(s.BackupDir(), n))
		}
	}
	// Stamps are fixed-width UTC, so lexical order is chronological.
	sort.Strings(out)
	return out, nil
}

// PruneBackups keeps the newest keep backups and removes the rest.
func (s Store) PruneBackups(keep int) ([]string, error) {
	if keep < 1 {
		keep = 1
	}
	all, err := s.ListBackups()
	if err != nil {
		return nil, err
	}
	if len(all) <= keep {
		return nil, nil
	}
	var removed []string
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}
