package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/directory"
	"eventcal/internal/metrics"
	"eventcal/internal/model"
	"eventcal/internal/mutate"
	"eventcal/internal/store"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s := store.Store{Dir: t.TempDir()}
	return New(directory.New(s), metrics.New()), s
}

func TestService_AddUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)

	e, err := svc.Add(ctx, mutate.Draft{Title: "Standup", Date: "2025-03-10", Category: "Work"})
	require.NoError(t, err)
	assert.True(t, store.LooksLikeEventID(e.ID))

	title := "Daily standup"
	e2, err := svc.Update(ctx, e.ID, mutate.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, e2.Title)

	stored, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, title, stored[0].Title)

	_, err = svc.Delete(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, svc.Dir.Events())

	_, err = svc.Delete(ctx, e.ID)
	var nf mutate.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestService_InvalidDateNeverPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, s := newService(t)

	_, err := svc.Add(ctx, mutate.Draft{Title: "x", Date: "32/13/2025"})
	var ve mutate.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "date", ve.Field)

	rev, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev)
}

func TestService_Import(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Add(ctx, mutate.Draft{Title: "keep", Date: "2025-01-01"})
	require.NoError(t, err)

	in := []model.Event{{ID: "ev-zzzzzzzz", Title: "new", Date: model.MustDate("2025-02-02"), Category: model.CategoryOthers}}
	res, err := svc.Import(ctx, in, false)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 1}, res)
	assert.Len(t, svc.Dir.Events(), 2)

	_, err = svc.Import(ctx, in, true)
	require.NoError(t, err)
	assert.Len(t, svc.Dir.Events(), 1)
}

func TestService_ImportSkipsBadDatesAndRepeatedIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var raw []model.Event
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"dup","title":"a","date":"not-a-date"},
		{"id":"dup","title":"b","date":"2025-13-45"},
		{"id":"x","title":"first","date":"2025-05-01"},
		{"id":"y","title":"other","date":"2025-05-03"},
		{"id":"x","title":"second","date":"2025-05-02"}
	]`), &raw))

	for _, replace := range []bool{true, false} {
		svc, s := newService(t)
		res, err := svc.Import(ctx, raw, replace)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Added: 2, Skipped: 3}, res, "replace=%v", replace)

		got := svc.Dir.Events()
		require.Len(t, got, 2)
		assert.Equal(t, "x", got[0].ID)
		assert.Equal(t, "second", got[0].Title)
		assert.Equal(t, "2025-05-02", got[0].Date.String())
		assert.Equal(t, "y", got[1].ID)

		stored, _, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, got, stored)
	}
}
