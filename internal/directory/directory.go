// Package directory holds the in-memory event collection every front end reads
// from, persists changes through a Backend, and notifies subscribers.
package directory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/store"
)

// Backend is the persistence the directory hydrates from and commits to.
type Backend interface {
	Load(ctx context.Context) ([]model.Event, store.Snapshot, error)
	Save(ctx context.Context, events []model.Event) (store.Snapshot, error)
	SaveIfRevision(ctx context.Context, events []model.Event, expected int64) (store.Snapshot, error)
	Revision(ctx context.Context) (int64, error)
}

type Policy int

const (
	// LastWriterWins overwrites concurrent changes and logs a warning.
	LastWriterWins Policy = iota
	// RejectConflicts refuses the write, reloads, and returns store.ErrConflict.
	RejectConflicts
)

// ParsePolicy maps the config value ("reject" or "last-writer-wins") to a Policy.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "reject") {
		return RejectConflicts
	}
	return LastWriterWins
}

type Option func(*Directory)

func WithPolicy(p Policy) Option {
	return func(d *Directory) { d.policy = p }
}

// WithOnChange registers a hook run after every Set (metrics, logging).
func WithOnChange(fn func([]model.Event)) Option {
	return func(d *Directory) { d.onChange = fn }
}

type Directory struct {
	backend  Backend
	policy   Policy
	onChange func([]model.Event)

	// commitMu serializes read-modify-write cycles in this process.
	commitMu sync.Mutex

	mu       sync.RWMutex
	events   []model.Event
	revision int64
	hydrated bool

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

func New(backend Backend, opts ...Option) *Directory {
	d := &Directory{
		backend: backend,
		events:  []model.Event{},
		subs:    map[chan struct{}]struct{}{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Events returns a copy of the current collection.
func (d *Directory) Events() []model.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return model.Clone(d.events)
}

func (d *Directory) Revision() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

func (d *Directory) Hydrated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hydrated
}

func (d *Directory) Find(id string) (model.Event, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return model.FindEvent(d.events, id)
}

// Set replaces the whole collection and notifies subscribers before returning.
// It does not persist; use Commit for that.
func (d *Directory) Set(events []model.Event) {
	d.mu.Lock()
	d.events = model.Clone(events)
	d.mu.Unlock()
	d.notify()
}

func (d *Directory) setSnapshot(events []model.Event, rev int64) {
	d.mu.Lock()
	d.events = model.Clone(events)
	d.revision = rev
	d.hydrated = true
	d.mu.Unlock()
	d.notify()
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees at least one pending signal, not one per change.
func (d *Directory) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, ch)
			d.subMu.Unlock()
			close(ch)
		})
	}
}

func (d *Directory) notify() {
	d.subMu.Lock()
	for ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	d.subMu.Unlock()
	if d.onChange != nil {
		d.onChange(d.Events())
	}
}

// Hydrate loads from the backend once. Later calls are no-ops.
func (d *Directory) Hydrate(ctx context.Context) error {
	if d.Hydrated() {
		return nil
	}
	d.commitMu.Lock()
	defer d.commitMu.Unlock()
	return d.hydrate(ctx)
}

func (d *Directory) hydrate(ctx context.Context) error {
	if d.Hydrated() {
		return nil
	}
	return d.reload(ctx)
}

// Reload re-reads the backend unconditionally. It waits for any running Commit.
func (d *Directory) Reload(ctx context.Context) error {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()
	return d.reload(ctx)
}

// ReloadIfChanged reloads only when the stored revision moved. The check and
// the load run under the commit lock so a concurrent Commit is never undone
// by a stale read.
func (d *Directory) ReloadIfChanged(ctx context.Context) (bool, error) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()
	changed, err := d.Changed(ctx)
	if err != nil || !changed {
		return false, err
	}
	return true, d.reload(ctx)
}

func (d *Directory) reload(ctx context.Context) error {
	events, snap, err := d.backend.Load(ctx)
	if err != nil {
		return err
	}
	d.setSnapshot(events, snap.Revision)
	return nil
}

// Commit applies fn to the current collection, persists the full result, and
// publishes it. When fn fails nothing is written.
func (d *Directory) Commit(ctx context.Context, fn func([]model.Event) ([]model.Event, error)) error {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	if err := d.hydrate(ctx); err != nil {
		return err
	}
	base := d.Revision()
	next, err := fn(d.Events())
	if err != nil {
		return err
	}

	var snap store.Snapshot
	switch d.policy {
	case RejectConflicts:
		snap, err = d.backend.SaveIfRevision(ctx, next, base)
		if errors.Is(err, store.ErrConflict) {
			if rerr := d.reload(ctx); rerr != nil {
				appLog.Error("reload after conflict failed", rerr)
			}
			return err
		}
	default:
		if cur, rerr := d.backend.Revision(ctx); rerr == nil && cur != base {
			appLog.Warn("overwriting events saved by another process", "expected_revision", base, "stored_revision", cur)
		}
		snap, err = d.backend.Save(ctx, next)
	}
	if err != nil {
		return err
	}
	d.setSnapshot(next, snap.Revision)
	return nil
}

// Watch polls the backend revision and reloads when another process wrote.
// It returns when ctx is done.
func (d *Directory) Watch(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 2 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := d.ReloadIfChanged(ctx); err != nil {
				appLog.Debug("revision poll failed", "error", err)
			}
		}
	}
}

// Changed reports whether the stored revision differs from the hydrated one.
func (d *Directory) Changed(ctx context.Context) (bool, error) {
	rev, err := d.backend.Revision(ctx)
	if err != nil {
		return false, err
	}
	return rev != d.Revision(), nil
}
