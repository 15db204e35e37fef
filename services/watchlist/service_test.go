package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"vibewatch/models"
	"vibewatch/services/kvstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(kvstore.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return svc
}

func TestAddListRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Add(ctx, "watchlist", models.WatchlistUpsert{ID: "27205", MediaType: "movie", Title: "Inception"}); err != nil {
		t.Fatalf("add movie: %v", err)
	}
	if _, err := svc.Add(ctx, "watchlist", models.WatchlistUpsert{ID: "1396", MediaType: "series", Title: "Breaking Bad"}); err != nil {
		t.Fatalf("add series: %v", err)
	}

	items, err := svc.List(ctx, "watchlist")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "1396" || items[0].MediaType != "tv" {
		t.Fatalf("expected newest first with normalized media type, got %+v", items[0])
	}

	ok, err := svc.Contains(ctx, "watchlist", "movie", "27205")
	if err != nil || !ok {
		t.Fatalf("expected movie in watchlist, got %v %v", ok, err)
	}

	removed, err := svc.Remove(ctx, "watchlist", "movie", "27205")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = svc.Remove(ctx, "watchlist", "movie", "27205")
	if err != nil || removed {
		t.Fatalf("second removal should report false, got %v %v", removed, err)
	}

	items, _ = svc.List(ctx, "watchlist")
	if len(items) != 1 {
		t.Fatalf("expected 1 item after removal, got %d", len(items))
	}
}

func TestAddUpsertKeepsAddedAt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.Add(ctx, "favorites", models.WatchlistUpsert{ID: "1", MediaType: "movie", Title: "Old", PosterPath: "/a.jpg"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := svc.Add(ctx, "favorites", models.WatchlistUpsert{ID: "1", MediaType: "movie", Title: "New"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !second.AddedAt.Equal(first.AddedAt) {
		t.Fatalf("AddedAt changed on update: %v -> %v", first.AddedAt, second.AddedAt)
	}
	if second.Title != "New" || second.PosterPath != "/a.jpg" {
		t.Fatalf("unexpected merged item %+v", second)
	}

	items, _ := svc.List(ctx, "favorites")
	if len(items) != 1 {
		t.Fatalf("upsert must not duplicate, got %d items", len(items))
	}
}

func TestListsAreSeparate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Add(ctx, "favorites", models.WatchlistUpsert{ID: "1", MediaType: "movie"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, err := svc.List(ctx, "watchlist")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("watchlist should be empty, got %+v", items)
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.List(ctx, "queue"); !errors.Is(err, ErrUnknownList) {
		t.Fatalf("expected ErrUnknownList, got %v", err)
	}
	if _, err := svc.Add(ctx, "watchlist", models.WatchlistUpsert{MediaType: "movie"}); !errors.Is(err, ErrIDRequired) {
		t.Fatalf("expected ErrIDRequired, got %v", err)
	}
	if _, err := svc.Add(ctx, "watchlist", models.WatchlistUpsert{ID: "1", MediaType: "podcast"}); !errors.Is(err, ErrMediaTypeRequired) {
		t.Fatalf("expected ErrMediaTypeRequired, got %v", err)
	}
	if _, err := svc.Remove(ctx, "watchlist", "", "1"); !errors.Is(err, ErrIdentifierRequired) {
		t.Fatalf("expected ErrIdentifierRequired, got %v", err)
	}
	if _, err := NewService(nil); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}
