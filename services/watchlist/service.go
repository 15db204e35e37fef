package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vibewatch/models"
	"vibewatch/services/kvstore"
)

var (
	ErrStoreRequired      = errors.New("key-value store not provided")
	ErrUnknownList        = errors.New("unknown list")
	ErrIDRequired         = errors.New("id is required")
	ErrMediaTypeRequired  = errors.New("media type is required")
	ErrIdentifierRequired = errors.New("id and media type are required")
)

const keyPrefix = "lists:"

// Service manages the watchlist and favorites lists. Each list is stored as
// one JSON array under lists:<name>.
type Service struct {
	mu    sync.Mutex
	store kvstore.Store
	now   func() time.Time
}

func NewService(store kvstore.Store) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Lists returns the supported list names.
func Lists() []string {
	return []string{models.ListWatchlist, models.ListFavorites}
}

func normaliseList(list string) (string, error) {
	list = strings.ToLower(strings.TrimSpace(list))
	switch list {
	case models.ListWatchlist, models.ListFavorites:
		return list, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
}

// List returns all items sorted by most recent additions first.
func (s *Service) List(ctx context.Context, list string) ([]models.WatchlistItem, error) {
	list, err := normaliseList(list)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx, list)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].Key() < items[j].Key()
		}
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	return items, nil
}

// Add inserts a new item or updates metadata for an existing one. The
// original AddedAt is kept on update.
func (s *Service) Add(ctx context.Context, list string, input models.WatchlistUpsert) (models.WatchlistItem, error) {
	list, err := normaliseList(list)
	if err != nil {
		return models.WatchlistItem{}, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return models.WatchlistItem{}, ErrIDRequired
	}
	mediaType := models.NormalizeMediaType(input.MediaType)
	if mediaType == "" {
		return models.WatchlistItem{}, ErrMediaTypeRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx, list)
	if err != nil {
		return models.WatchlistItem{}, err
	}

	key := mediaType + ":" + id
	idx := -1
	for i := range items {
		if items[i].Key() == key {
			idx = i
			break
		}
	}

	var item models.WatchlistItem
	if idx >= 0 {
		item = items[idx]
	} else {
		item = models.WatchlistItem{ID: id, MediaType: mediaType, AddedAt: s.now()}
	}
	if strings.TrimSpace(input.Title) != "" {
		item.Title = strings.TrimSpace(input.Title)
	}
	if strings.TrimSpace(input.PosterPath) != "" {
		item.PosterPath = strings.TrimSpace(input.PosterPath)
	}
	if input.Year != 0 {
		item.Year = input.Year
	}

	if idx >= 0 {
		items[idx] = item
	} else {
		items = append(items, item)
	}

	if err := s.saveLocked(ctx, list, items); err != nil {
		return models.WatchlistItem{}, err
	}
	return item, nil
}

// Remove deletes an item and reports whether it was present.
func (s *Service) Remove(ctx context.Context, list, mediaType, id string) (bool, error) {
	list, err := normaliseList(list)
	if err != nil {
		return false, err
	}
	key, err := itemKey(mediaType, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx, list)
	if err != nil {
		return false, err
	}

	kept := items[:0]
	removed := false
	for _, item := range items {
		if item.Key() == key {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}
	if err := s.saveLocked(ctx, list, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Contains reports whether the list holds the given title.
func (s *Service) Contains(ctx context.Context, list, mediaType, id string) (bool, error) {
	list, err := normaliseList(list)
	if err != nil {
		return false, err
	}
	key, err := itemKey(mediaType, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx, list)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func itemKey(mediaType, id string) (string, error) {
	mediaType = models.NormalizeMediaType(mediaType)
	id = strings.TrimSpace(id)
	if mediaType == "" || id == "" {
		return "", ErrIdentifierRequired
	}
	return mediaType + ":" + id, nil
}

func (s *Service) loadLocked(ctx context.Context, list string) ([]models.WatchlistItem, error) {
	raw, ok, err := s.store.Get(ctx, keyPrefix+list)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", list, err)
	}
	items := make([]models.WatchlistItem, 0)
	if !ok || strings.TrimSpace(raw) == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", list, err)
	}
	return items, nil
}

func (s *Service) saveLocked(ctx context.Context, list string, items []models.WatchlistItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", list, err)
	}
	if err := s.store.Set(ctx, keyPrefix+list, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", list, err)
	}
	return nil
}
