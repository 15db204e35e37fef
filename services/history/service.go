package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"vibewatch/models"
	"vibewatch/services/kvstore"
)

var (
	ErrStoreRequired      = errors.New("key-value store not provided")
	ErrQueryRequired      = errors.New("query is required")
	ErrIdentifierRequired = errors.New("id and media type are required")
	ErrInvalidProgress    = errors.New("invalid playback progress")
)

const (
	searchHistoryKey  = "history:searches"
	progressKeyPrefix = "progress:"

	// MaxSearchHistory bounds the stored query list.
	MaxSearchHistory = 50
	// completedPercent marks a title as finished.
	completedPercent = 90
)

// Service persists search history and resume positions in the key-value store.
type Service struct {
	mu    sync.Mutex
	store kvstore.Store
	now   func() time.Time
	fold  cases.Caser
}

func NewService(store kvstore.Store) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		fold:  cases.Fold(),
	}, nil
}

// RecordSearch stores query at the top of the search history. An earlier
// entry for the same query (compared case-insensitively) is replaced.
func (s *Service) RecordSearch(ctx context.Context, query string) (models.SearchHistoryEntry, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return models.SearchHistoryEntry{}, ErrQueryRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadSearchesLocked(ctx)
	if err != nil {
		return models.SearchHistoryEntry{}, err
	}

	entry := models.SearchHistoryEntry{
		ID:         uuid.NewString(),
		Query:      query,
		SearchedAt: s.now(),
	}
	folded := s.fold.String(query)

	updated := make([]models.SearchHistoryEntry, 0, len(entries)+1)
	updated = append(updated, entry)
	for _, e := range entries {
		if s.fold.String(e.Query) == folded {
			continue
		}
		updated = append(updated, e)
	}
	if len(updated) > MaxSearchHistory {
		updated = updated[:MaxSearchHistory]
	}

	if err := s.saveJSONLocked(ctx, searchHistoryKey, updated); err != nil {
		return models.SearchHistoryEntry{}, err
	}
	return entry, nil
}

// SearchHistory returns stored queries, most recent first.
func (s *Service) SearchHistory(ctx context.Context) ([]models.SearchHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSearchesLocked(ctx)
}

// ClearSearchHistory forgets every stored query.
func (s *Service) ClearSearchHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, searchHistoryKey); err != nil {
		return fmt.Errorf("clear search history: %w", err)
	}
	log.Printf("[history] search history cleared")
	return nil
}

func (s *Service) loadSearchesLocked(ctx context.Context) ([]models.SearchHistoryEntry, error) {
	entries := make([]models.SearchHistoryEntry, 0)
	if err := s.loadJSONLocked(ctx, searchHistoryKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Playback Progress Methods

func progressKey(mediaType, id string) (string, string, string, error) {
	mediaType = models.NormalizeMediaType(mediaType)
	id = strings.ToLower(strings.TrimSpace(id))
	if mediaType == "" || id == "" {
		return "", "", "", ErrIdentifierRequired
	}
	return progressKeyPrefix + mediaType + ":" + id, mediaType, id, nil
}

// SaveProgress records the resume position for a title. Series keep only
// the most recently played episode.
func (s *Service) SaveProgress(ctx context.Context, mediaType, id string, update models.PlaybackProgressUpdate) (models.PlaybackProgress, error) {
	key, mediaType, id, err := progressKey(mediaType, id)
	if err != nil {
		return models.PlaybackProgress{}, err
	}
	if update.DurationSeconds <= 0 {
		return models.PlaybackProgress{}, fmt.Errorf("%w: duration must be positive", ErrInvalidProgress)
	}
	if update.PositionSeconds < 0 {
		return models.PlaybackProgress{}, fmt.Errorf("%w: position cannot be negative", ErrInvalidProgress)
	}
	if update.Season < 0 || update.Episode < 0 {
		return models.PlaybackProgress{}, fmt.Errorf("%w: season and episode cannot be negative", ErrInvalidProgress)
	}

	percentWatched := (update.PositionSeconds / update.DurationSeconds) * 100
	if percentWatched > 100 {
		percentWatched = 100
	}

	progress := models.PlaybackProgress{
		MediaType:       mediaType,
		ID:              id,
		PositionSeconds: update.PositionSeconds,
		DurationSeconds: update.DurationSeconds,
		PercentWatched:  percentWatched,
		Completed:       percentWatched >= completedPercent,
		UpdatedAt:       s.now(),
	}
	if mediaType == models.MediaTypeTV {
		progress.Season = update.Season
		progress.Episode = update.Episode
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveJSONLocked(ctx, key, progress); err != nil {
		return models.PlaybackProgress{}, err
	}
	return progress, nil
}

// Progress returns the stored resume position, or nil when none exists.
func (s *Service) Progress(ctx context.Context, mediaType, id string) (*models.PlaybackProgress, error) {
	key, _, _, err := progressKey(mediaType, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var progress models.PlaybackProgress
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &progress, nil
}

// ListProgress returns unfinished titles, most recently updated first.
func (s *Service) ListProgress(ctx context.Context) ([]models.PlaybackProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.store.Keys(ctx, progressKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	items := make([]models.PlaybackProgress, 0, len(keys))
	for _, key := range keys {
		var progress models.PlaybackProgress
		if err := s.loadJSONLocked(ctx, key, &progress); err != nil {
			log.Printf("[history] skipping unreadable progress %s: %v", key, err)
			continue
		}
		if progress.Completed {
			continue
		}
		items = append(items, progress)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

// DeleteProgress removes the resume position for a title.
func (s *Service) DeleteProgress(ctx context.Context, mediaType, id string) error {
	key, _, _, err := progressKey(mediaType, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, key)
}

func (s *Service) loadJSONLocked(ctx context.Context, key string, v any) error {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Service) saveJSONLocked(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
