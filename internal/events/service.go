// Package events wires mutations to the directory so every front end adds,
// edits and deletes the same way.
package events

import (
	"context"
	"strings"
	"time"

	"eventcal/internal/directory"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/model"
	"eventcal/internal/mutate"
	"eventcal/internal/store"
)

type Service struct {
	Dir     *directory.Directory
	Metrics *metrics.Metrics
}

func New(dir *directory.Directory, m *metrics.Metrics) *Service {
	return &Service{Dir: dir, Metrics: m}
}

func (s *Service) Add(ctx context.Context, d mutate.Draft) (model.Event, error) {
	var created model.Event
	err := s.commit(ctx, "add", func(cur []model.Event) ([]model.Event, error) {
		next, e, err := mutate.Add(cur, d, store.NewUniqueEventID)
		created = e
		return next, err
	})
	return created, err
}

func (s *Service) Update(ctx context.Context, id string, p mutate.Patch) (model.Event, error) {
	var updated model.Event
	err := s.commit(ctx, "update", func(cur []model.Event) ([]model.Event, error) {
		next, e, err := mutate.Update(cur, id, p)
		updated = e
		return next, err
	})
	return updated, err
}

func (s *Service) Delete(ctx context.Context, id string) (model.Event, error) {
	var removed model.Event
	err := s.commit(ctx, "delete", func(cur []model.Event) ([]model.Event, error) {
		next, e, err := mutate.Delete(cur, id)
		removed = e
		return next, err
	})
	return removed, err
}

// ImportResult counts what an import did to the collection.
type ImportResult struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Import merges incoming events by id. With replace the collection is overwritten.
// Events without a valid date are skipped. When an id repeats, the last one wins.
func (s *Service) Import(ctx context.Context, incoming []model.Event, replace bool) (ImportResult, error) {
	var res ImportResult
	err := s.commit(ctx, "import", func(cur []model.Event) ([]model.Event, error) {
		clean, skipped := sanitizeImport(incoming)
		res = ImportResult{Skipped: skipped}
		if replace {
			res.Added = len(clean)
			return clean, nil
		}
		var next []model.Event
		next, res.Added, res.Replaced = mutate.Merge(cur, clean)
		return next, nil
	})
	if err == nil && res.Skipped > 0 {
		appLog.Warn("import skipped events", "skipped", res.Skipped)
	}
	return res, err
}

// sanitizeImport drops zero-date events and collapses repeated ids onto the
// position of their first occurrence, keeping the last value.
func sanitizeImport(incoming []model.Event) ([]model.Event, int) {
	out := make([]model.Event, 0, len(incoming))
	pos := make(map[string]int, len(incoming))
	skipped := 0
	for _, e := range incoming {
		if e.Date.IsZero() || strings.TrimSpace(e.ID) == "" {
			skipped++
			continue
		}
		if i, ok := pos[e.ID]; ok {
			out[i] = e
			skipped++
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e)
	}
	return out, skipped
}

func (s *Service) commit(ctx context.Context, op string, fn func([]model.Event) ([]model.Event, error)) error {
	start := time.Now()
	err := s.Dir.Commit(ctx, fn)
	s.Metrics.Mutation(op, err)
	if err == nil {
		s.Metrics.ObserveStoreWrite(time.Since(start))
	}
	return err
}
