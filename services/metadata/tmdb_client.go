package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/text/language"

	"vibewatch/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
	tmdbStillSize    = "w300"

	tmdbAttempts     = 3
	tmdbDefaultDelay = 300 * time.Millisecond
)

var (
	ErrNotConfigured = errors.New("metadata base url not configured")
	ErrNotFound      = errors.New("metadata not found")
)

// retryableError marks failures worth another attempt: transport errors,
// 429 and 5xx.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

type tmdbClient struct {
	baseURL    string
	apiKey     string
	language   string
	httpc      *http.Client
	retryDelay time.Duration

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(baseURL, apiKey, lang string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &tmdbClient{
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(apiKey),
		language:    normalizeLanguage(lang),
		httpc:       httpc,
		retryDelay:  tmdbDefaultDelay,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.baseURL != ""
}

// endpoint joins path segments onto the base URL and returns it with the
// request parameters (language included). The api key is appended separately
// so it never becomes part of a cache key.
func (c *tmdbClient) endpoint(params url.Values, segments ...string) (string, url.Values, error) {
	if !c.isConfigured() {
		return "", nil, ErrNotConfigured
	}
	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return "", nil, err
	}
	if params == nil {
		params = url.Values{}
	}
	if params.Get("language") == "" {
		params.Set("language", c.language)
	}
	return endpoint, params, nil
}

// doGET performs an HTTP GET with rate limiting and retry with exponential
// backoff. It returns the raw response body.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	full := endpoint + "?" + query.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpc.Do(req)
			if err != nil {
				return &retryableError{err: err}
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return &retryableError{err: fmt.Errorf("tmdb request failed: %s", resp.Status)}
			case resp.StatusCode == http.StatusNotFound:
				return ErrNotFound
			case resp.StatusCode >= 400:
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}

			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(tmdbAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var re *retryableError
			return errors.As(err, &re)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[metadata] tmdb attempt %d/%d failed: %v", n+1, tmdbAttempts, err)
		}),
	)
	if err != nil {
		var re *retryableError
		if errors.As(err, &re) {
			return nil, re.err
		}
		return nil, err
	}
	return body, nil
}

func (c *tmdbClient) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

type tmdbListItem struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Title            string  `json:"title"`
	OriginalName     string  `json:"original_name"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	OriginalLanguage string  `json:"original_language"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	FirstAirDate     string  `json:"first_air_date"`
	ReleaseDate      string  `json:"release_date"`
	MediaType        string  `json:"media_type"`
}

type tmdbSearchResponse struct {
	Page         int            `json:"page"`
	Results      []tmdbListItem `json:"results"`
	TotalResults int            `json:"total_results"`
}

type tmdbDetailsResponse struct {
	tmdbListItem
	IMDBID  string `json:"imdb_id"`
	Runtime int    `json:"runtime"`
	Status  string `json:"status"`
	Genres  []struct {
		Name string `json:"name"`
	} `json:"genres"`
	NumberOfSeasons int `json:"number_of_seasons"`
}

type tmdbSeasonResponse struct {
	Episodes []struct {
		ID            int64   `json:"id"`
		Name          string  `json:"name"`
		Overview      string  `json:"overview"`
		SeasonNumber  int     `json:"season_number"`
		EpisodeNumber int     `json:"episode_number"`
		AirDate       string  `json:"air_date"`
		Runtime       int     `json:"runtime"`
		VoteAverage   float64 `json:"vote_average"`
		StillPath     string  `json:"still_path"`
	} `json:"episodes"`
}

type tmdbExternalIDsResponse struct {
	ID     int64  `json:"id"`
	IMDBID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id"`
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func toTitle(item tmdbListItem, mediaType string) models.Title {
	title := models.Title{
		ID:           fmt.Sprintf("tmdb:%s:%d", mediaType, item.ID),
		Name:         pickTMDBName(mediaType, item.Name, item.Title),
		OriginalName: pickTMDBName(mediaType, item.OriginalName, item.OriginalTitle),
		Overview:     item.Overview,
		Year:         parseTMDBYear(item.ReleaseDate, item.FirstAirDate),
		Language:     item.OriginalLanguage,
		MediaType:    mediaType,
		TMDBID:       item.ID,
		Popularity:   item.Popularity,
		VoteAverage:  item.VoteAverage,
		Poster:       buildTMDBImage(item.PosterPath, tmdbPosterSize, "poster"),
		Backdrop:     buildTMDBImage(item.BackdropPath, tmdbBackdropSize, "backdrop"),
	}
	if title.OriginalName == title.Name {
		title.OriginalName = ""
	}
	return title
}

func pickTMDBName(mediaType, seriesName, movieTitle string) string {
	if mediaType == models.MediaTypeMovie && movieTitle != "" {
		return movieTitle
	}
	if seriesName != "" {
		return seriesName
	}
	return movieTitle
}

func parseTMDBYear(movieDate, seriesDate string) int {
	date := movieDate
	if date == "" {
		date = seriesDate
	}
	if date == "" {
		return 0
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Year()
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return 0
}

func buildTMDBImage(imagePath, size, imageType string) *models.Image {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return nil
	}
	fullPath := path.Join(size, strings.TrimPrefix(trimmed, "/"))
	return &models.Image{
		URL:  fmt.Sprintf("%s/%s", tmdbImageBaseURL, fullPath),
		Type: imageType,
	}
}

// normalizeLanguage turns loose locale spellings (en, pt_br, de-DE) into the
// language-REGION form TMDB expects, inferring the region when missing.
func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if lang == "" {
		return "en-US"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "en-US"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "en-US"
	}
	region, conf := tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "-" + region.String()
}
