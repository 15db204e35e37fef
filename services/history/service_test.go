package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibewatch/models"
	"vibewatch/services/kvstore"
)

func newTestService(t *testing.T) (*Service, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory()
	svc, err := NewService(store)
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc, store
}

func queries(entries []models.SearchHistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Query)
	}
	return out
}

func TestRecordSearchMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, q := range []string{"dune", "alien", "the  matrix "} {
		_, err := svc.RecordSearch(ctx, q)
		require.NoError(t, err)
	}

	entries, err := svc.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"the matrix", "alien", "dune"}, queries(entries))
	for _, e := range entries {
		assert.Len(t, e.ID, 36, "entries carry a uuid")
	}
}

func TestRecordSearchDeduplicatesCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.RecordSearch(ctx, "Dune")
	require.NoError(t, err)
	_, err = svc.RecordSearch(ctx, "alien")
	require.NoError(t, err)
	latest, err := svc.RecordSearch(ctx, "DUNE")
	require.NoError(t, err)

	entries, err := svc.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DUNE", "alien"}, queries(entries))
	assert.Equal(t, latest.ID, entries[0].ID)
}

func TestRecordSearchCapped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for i := 0; i < MaxSearchHistory+5; i++ {
		_, err := svc.RecordSearch(ctx, fmt.Sprintf("query %d", i))
		require.NoError(t, err)
	}

	entries, err := svc.SearchHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, MaxSearchHistory)
	assert.Equal(t, fmt.Sprintf("query %d", MaxSearchHistory+4), entries[0].Query)
	assert.Equal(t, "query 5", entries[MaxSearchHistory-1].Query)
}

func TestRecordSearchRejectsBlank(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordSearch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrQueryRequired)
}

func TestClearSearchHistory(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.RecordSearch(ctx, "dune")
	require.NoError(t, err)
	require.NoError(t, svc.ClearSearchHistory(ctx))

	entries, err := svc.SearchHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, ok, _ := store.Get(ctx, searchHistoryKey)
	assert.False(t, ok)
}

func TestProgressRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	none, err := svc.Progress(ctx, "tv", "1396")
	require.NoError(t, err)
	assert.Nil(t, none)

	saved, err := svc.SaveProgress(ctx, "series", "1396", models.PlaybackProgressUpdate{
		Season: 2, Episode: 3, PositionSeconds: 600, DurationSeconds: 2400,
	})
	require.NoError(t, err)
	assert.Equal(t, "tv", saved.MediaType)
	assert.InDelta(t, 25.0, saved.PercentWatched, 0.001)
	assert.False(t, saved.Completed)

	got, err := svc.Progress(ctx, "tv", "1396")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved, *got)
	assert.Equal(t, 2, got.Season)
	assert.Equal(t, 3, got.Episode)
}

func TestProgressMovieIgnoresEpisode(t *testing.T) {
	svc, _ := newTestService(t)

	saved, err := svc.SaveProgress(context.Background(), "movie", "27205", models.PlaybackProgressUpdate{
		Season: 1, Episode: 1, PositionSeconds: 9000, DurationSeconds: 8880,
	})
	require.NoError(t, err)
	assert.Zero(t, saved.Season)
	assert.Zero(t, saved.Episode)
	assert.Equal(t, 100.0, saved.PercentWatched)
	assert.True(t, saved.Completed)
}

func TestListProgressSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SaveProgress(ctx, "movie", "1", models.PlaybackProgressUpdate{PositionSeconds: 10, DurationSeconds: 100})
	require.NoError(t, err)
	_, err = svc.SaveProgress(ctx, "movie", "2", models.PlaybackProgressUpdate{PositionSeconds: 95, DurationSeconds: 100})
	require.NoError(t, err)
	_, err = svc.SaveProgress(ctx, "tv", "3", models.PlaybackProgressUpdate{Season: 1, Episode: 2, PositionSeconds: 5, DurationSeconds: 100})
	require.NoError(t, err)

	items, err := svc.ListProgress(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].ID)
	assert.Equal(t, "1", items[1].ID)

	require.NoError(t, svc.DeleteProgress(ctx, "tv", "3"))
	items, err = svc.ListProgress(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSaveProgressValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SaveProgress(ctx, "movie", "1", models.PlaybackProgressUpdate{PositionSeconds: 1})
	assert.True(t, errors.Is(err, ErrInvalidProgress))
	_, err = svc.SaveProgress(ctx, "movie", "1", models.PlaybackProgressUpdate{PositionSeconds: -1, DurationSeconds: 10})
	assert.True(t, errors.Is(err, ErrInvalidProgress))
	_, err = svc.SaveProgress(ctx, "book", "1", models.PlaybackProgressUpdate{DurationSeconds: 10})
	assert.ErrorIs(t, err, ErrIdentifierRequired)
}
