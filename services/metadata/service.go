package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"vibewatch/models"
)

// Config describes the TMDB-compatible endpoint. BaseURL may point at TMDB
// itself or at a proxy that injects credentials, in which case APIKey stays
// empty.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
}

// Service resolves titles, episodes and external ids. Responses are cached in
// memory for the life of the process, keyed by endpoint and parameters.
type Service struct {
	tmdb *tmdbClient

	cacheMu sync.RWMutex
	cache   map[string][]byte
}

func NewService(cfg Config, httpc *http.Client) *Service {
	baseURL := cfg.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = tmdbBaseURL
	}
	return &Service{
		tmdb:  newTMDBClient(baseURL, cfg.APIKey, cfg.Language, httpc),
		cache: make(map[string][]byte),
	}
}

// Language returns the normalized language tag sent with every request.
func (s *Service) Language() string {
	return s.tmdb.language
}

// ClearCache drops every cached response.
func (s *Service) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache = make(map[string][]byte)
	log.Printf("[metadata] cache cleared")
}

// CacheSize reports the number of cached responses.
func (s *Service) CacheSize() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return len(s.cache)
}

// fetch returns the response body for the endpoint, from cache when present.
// Only successful responses are cached.
func (s *Service) fetch(ctx context.Context, params url.Values, v any, segments ...string) error {
	endpoint, params, err := s.tmdb.endpoint(params, segments...)
	if err != nil {
		return err
	}
	key := endpoint + "?" + params.Encode()

	s.cacheMu.RLock()
	body, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if !ok {
		body, err = s.tmdb.doGET(ctx, endpoint, params)
		if err != nil {
			return err
		}
		s.cacheMu.Lock()
		s.cache[key] = body
		s.cacheMu.Unlock()
	}
	return decodeJSON(body, v)
}

// Search looks up titles by free text. mediaType is movie, tv, or empty for
// both; people are dropped from mixed results.
func (s *Service) Search(ctx context.Context, query, mediaType string) ([]models.Title, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Title{}, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	normalized := models.NormalizeMediaType(mediaType)
	kind := normalized
	if kind == "" {
		kind = "multi"
	}

	var payload tmdbSearchResponse
	if err := s.fetch(ctx, params, &payload, "search", kind); err != nil {
		return nil, fmt.Errorf("search %s %q: %w", kind, query, err)
	}

	titles := make([]models.Title, 0, len(payload.Results))
	for _, item := range payload.Results {
		itemType := normalized
		if itemType == "" {
			itemType = models.NormalizeMediaType(item.MediaType)
		}
		if itemType == "" {
			continue
		}
		titles = append(titles, toTitle(item, itemType))
	}
	return titles, nil
}

// Details returns the full record for one movie or series.
func (s *Service) Details(ctx context.Context, mediaType string, tmdbID int64) (*models.Title, error) {
	normalized := models.NormalizeMediaType(mediaType)
	if normalized == "" {
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}

	var payload tmdbDetailsResponse
	if err := s.fetch(ctx, nil, &payload, normalized, strconv.FormatInt(tmdbID, 10)); err != nil {
		return nil, fmt.Errorf("%s details %d: %w", normalized, tmdbID, err)
	}

	title := toTitle(payload.tmdbListItem, normalized)
	title.IMDBID = payload.IMDBID
	title.Status = payload.Status
	title.RuntimeMinutes = payload.Runtime
	title.SeasonCount = payload.NumberOfSeasons
	for _, g := range payload.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			title.Genres = append(title.Genres, name)
		}
	}
	return &title, nil
}

// Episodes lists the episodes of one season of a series.
func (s *Service) Episodes(ctx context.Context, tvID int64, season int) ([]models.SeriesEpisode, error) {
	if season < 0 {
		return nil, fmt.Errorf("invalid season %d", season)
	}

	var payload tmdbSeasonResponse
	if err := s.fetch(ctx, nil, &payload, "tv", strconv.FormatInt(tvID, 10), "season", strconv.Itoa(season)); err != nil {
		return nil, fmt.Errorf("tv %d season %d: %w", tvID, season, err)
	}

	episodes := make([]models.SeriesEpisode, 0, len(payload.Episodes))
	for _, ep := range payload.Episodes {
		episodes = append(episodes, models.SeriesEpisode{
			ID:             fmt.Sprintf("tmdb:episode:%d", ep.ID),
			Name:           ep.Name,
			Overview:       ep.Overview,
			SeasonNumber:   ep.SeasonNumber,
			EpisodeNumber:  ep.EpisodeNumber,
			AiredDate:      ep.AirDate,
			RuntimeMinutes: ep.Runtime,
			VoteAverage:    ep.VoteAverage,
			Image:          buildTMDBImage(ep.StillPath, tmdbStillSize, "still"),
		})
	}
	return episodes, nil
}

// ExternalIDs returns the IMDB and TVDB ids for a TMDB title.
func (s *Service) ExternalIDs(ctx context.Context, mediaType string, tmdbID int64) (models.ExternalIDs, error) {
	normalized := models.NormalizeMediaType(mediaType)
	if normalized == "" {
		return models.ExternalIDs{}, fmt.Errorf("unsupported media type %q", mediaType)
	}

	var payload tmdbExternalIDsResponse
	if err := s.fetch(ctx, nil, &payload, normalized, strconv.FormatInt(tmdbID, 10), "external_ids"); err != nil {
		return models.ExternalIDs{}, fmt.Errorf("%s external ids %d: %w", normalized, tmdbID, err)
	}
	return models.ExternalIDs{TMDBID: tmdbID, IMDBID: payload.IMDBID, TVDBID: payload.TVDBID}, nil
}
