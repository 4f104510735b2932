package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

const (
	// EventsKey is the single key holding the serialized event collection.
	EventsKey = "events"

	sqliteFileName     = "events.sqlite"
	legacyJSONFileName = "events.json"
)

// ErrConflict is returned by SaveIfRevision when another writer saved in between.
var ErrConflict = errors.New("events were modified by another process")

// Store persists the whole event collection as one JSON blob.
type Store struct {
	Dir string
}

// Snapshot describes the stored blob a Load or Save observed.
type Snapshot struct {
	Revision  int64
	UpdatedAt time.Time
}

func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("EVENTCAL_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".eventcal"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) legacyJSONPath() string {
	return filepath.Join(s.Dir, legacyJSONFileName)
}

// Load returns the persisted collection. A missing or unparseable blob yields an
// empty collection; only failures to reach the database are returned as errors.
func (s Store) Load(ctx context.Context) ([]model.Event, Snapshot, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, Snapshot{}, err
	}
	defer db.Close()

	raw, snap, found, err := readBlob(ctx, db, EventsKey)
	if err != nil {
		return nil, Snapshot{}, err
	}
	if !found {
		imported, snap, ok := s.importLegacyJSON(ctx)
		if ok {
			return imported, snap, nil
		}
		return []model.Event{}, Snapshot{}, nil
	}
	return decodeEvents(raw), snap, nil
}

// Save overwrites the whole collection in a single write.
func (s Store) Save(ctx context.Context, events []model.Event) (Snapshot, error) {
	return s.save(ctx, events, nil)
}

// SaveIfRevision saves only if the stored revision still equals expected.
func (s Store) SaveIfRevision(ctx context.Context, events []model.Event, expected int64) (Snapshot, error) {
	return s.save(ctx, events, &expected)
}

// Revision reports the current stored revision (0 when nothing was saved yet).
func (s Store) Revision(ctx context.Context) (int64, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var rev int64
	err = db.QueryRowContext(ctx, `SELECT revision FROM kv WHERE k = ?`, EventsKey).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}

func (s Store) save(ctx context.Context, events []model.Event, expected *int64) (Snapshot, error) {
	if events == nil {
		events = []model.Event{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return Snapshot{}, err
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var cur int64
	err = tx.QueryRowContext(ctx, `SELECT revision FROM kv WHERE k = ?`, EventsKey).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}
	if expected != nil && cur != *expected {
		return Snapshot{Revision: cur}, ErrConflict
	}

	now := time.Now().UTC()
	next := cur + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv(k, v, revision, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		EventsKey, string(b), next, now.UnixMilli()); err != nil {
		return Snapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Revision: next, UpdatedAt: now}, nil
}

func readBlob(ctx context.Context, db *sql.DB, key string) (string, Snapshot, bool, error) {
	var (
		raw   string
		rev   int64
		msecs int64
	)
	err := db.QueryRowContext(ctx, `SELECT v, revision, updated_at_unixms FROM kv WHERE k = ?`, key).Scan(&raw, &rev, &msecs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", Snapshot{}, false, nil
	}
	if err != nil {
		return "", Snapshot{}, false, err
	}
	return raw, Snapshot{Revision: rev, UpdatedAt: time.UnixMilli(msecs).UTC()}, true, nil
}

// decodeEvents treats malformed data as an empty collection.
func decodeEvents(raw string) []model.Event {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []model.Event{}
	}
	var events []model.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		appLog.Warn("stored events are malformed; treating as empty", "error", err)
		return []model.Event{}
	}
	if events == nil {
		return []model.Event{}
	}
	return events
}

// importLegacyJSON imports <dir>/events.json (a localStorage export) once.
func (s Store) importLegacyJSON(ctx context.Context) ([]model.Event, Snapshot, bool) {
	b, err := os.ReadFile(s.legacyJSONPath())
	if err != nil || len(b) == 0 {
		return nil, Snapshot{}, false
	}
	events := decodeEvents(string(b))
	snap, err := s.Save(ctx, events)
	if err != nil {
		appLog.Error("legacy events.json import failed", err, "path", s.legacyJSONPath())
		return nil, Snapshot{}, false
	}
	appLog.Info("imported legacy events.json", "path", s.legacyJSONPath(), "count", len(events))
	return events, snap, true
}
