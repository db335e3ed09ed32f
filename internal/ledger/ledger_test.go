package ledger

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qcc-tools/qcc/internal/version"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "publishes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first, err := l.Record(ctx, Record{
		Department:    "Modeling",
		SourcePath:    "/shows/a/mdl_chair_v001.ma",
		PublishedPath: "/shows/a/mdl_chair_v002.ma",
		Version:       "v002",
		PublishedAt:   base,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)

	_, err = l.Record(ctx, Record{
		Department:    "Modeling",
		SourcePath:    "/shows/a/mdl_chair_v002.ma",
		PublishedPath: "/shows/a/mdl_chair_v003.ma",
		Version:       "v003",
		PublishedAt:   base.Add(time.Hour),
	})
	require.NoError(t, err)

	all, err := l.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v003", all[0].Version)
	assert.Equal(t, first, all[1])

	limited, err := l.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "v003", limited[0].Version)
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 999, time.FixedZone("CET", 3600))
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	r, err := openTemp(t).Record(context.Background(), Record{Version: "v001"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 4, 2, 2, 1, 0, time.UTC), r.PublishedAt)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	l := openTemp(t)

	_, ok, err := l.Latest(ctx, "/shows/a/mdl_chair_v001.ma")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sources := []string{
		"/shows/a/mdl_chair_v001.ma",
		"/shows/a/mdl_table_v004.ma",
		"/shows/a/mdl_chair_v002.ma",
		"/shows/a/mdl_chair_broken_v008.ma",
		"/shows/a/mdl_chair_final.ma",
	}
	for i, src := range sources {
		_, err := l.Record(ctx, Record{SourcePath: src, PublishedPath: src + ".next", PublishedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	r, ok, err := l.Latest(ctx, "/shows/a/mdl_chair_v003.ma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/shows/a/mdl_chair_v002.ma", r.SourcePath)

	r, ok, err = l.Latest(ctx, "/shows/a/mdl_chair_broken_v009.ma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/shows/a/mdl_chair_broken_v008.ma", r.SourcePath)

	r, ok, err = l.Latest(ctx, "/shows/a/mdl_table_v005.ma")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/shows/a/mdl_table_v004.ma", r.SourcePath)

	_, ok, err = l.Latest(ctx, "/shows/a/mdl_t_v001.ma")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = l.Latest(ctx, "/shows/a/mdl_chair_final.ma")
	assert.True(t, version.IsNoVersionToken(err))
}

func TestOpenFailure(t *testing.T) {
	orig := openDB
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("driver unavailable") }
	t.Cleanup(func() { openDB = orig })

	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "driver unavailable")
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "publishes.db")

	l, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = l.Record(ctx, Record{Version: "v007"})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(ctx, path)
	require.NoError(t, err)
	defer l.Close()

	all, err := l.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "v007", all[0].Version)
}
