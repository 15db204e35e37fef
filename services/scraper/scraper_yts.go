package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"vibewatch/models"
	"vibewatch/utils/httpclient"
)

const (
	ytsDefaultBaseURL = "https://yts.mx"
	ytsPageLimit      = 50
)

var errYTSMalformed = errors.New("yts response missing data object")

// YTSScraper queries the YTS movie-listing API. Each movie expands into one
// result per torrent quality variant.
type YTSScraper struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewYTSScraper constructs a YTS scraper. An empty name falls back to "YTS"
// and an empty base URL to the public mirror.
func NewYTSScraper(baseURL, name string, client *http.Client) *YTSScraper {
	if client == nil {
		client = &http.Client{Timeout: httpclient.DefaultTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = ytsDefaultBaseURL
	}
	return &YTSScraper{
		name:       strings.TrimSpace(name),
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (y *YTSScraper) Name() string {
	if y.name != "" {
		return y.name
	}
	return "YTS"
}

type ytsResponse struct {
	Status string   `json:"status"`
	Data   *ytsData `json:"data"`
}

type ytsData struct {
	MovieCount int        `json:"movie_count"`
	Movies     []ytsMovie `json:"movies"`
}

type ytsMovie struct {
	ID       flexString   `json:"id"`
	Title    string       `json:"title"`
	Year     int          `json:"year"`
	Torrents []ytsTorrent `json:"torrents"`
}

type ytsTorrent struct {
	URL     string  `json:"url"`
	Hash    string  `json:"hash"`
	Quality string  `json:"quality"`
	Type    string  `json:"type"`
	Size    string  `json:"size"`
	Seeds   flexInt `json:"seeds"`
	Peers   flexInt `json:"peers"`
}

func (y *YTSScraper) Search(ctx context.Context, query string) ([]models.TorrentResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query_term", query)
	params.Set("limit", fmt.Sprintf("%d", ytsPageLimit))
	apiURL := fmt.Sprintf("%s/api/v2/list_movies.json?%s", y.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yts returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload ytsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode yts response: %w", err)
	}

	results, err := y.mapResponse(payload)
	if err != nil {
		return nil, err
	}
	log.Printf("[yts] %d results for %q", len(results), query)
	return results, nil
}

// mapResponse converts a decoded payload; a missing data object is treated
// as malformed, an empty or null movie list as no results.
func (y *YTSScraper) mapResponse(payload ytsResponse) ([]models.TorrentResult, error) {
	if payload.Data == nil {
		return nil, errYTSMalformed
	}

	results := make([]models.TorrentResult, 0)
	for _, movie := range payload.Data.Movies {
		movieID := strings.TrimSpace(string(movie.ID))
		for _, torrent := range movie.Torrents {
			link := strings.TrimSpace(torrent.URL)
			if !models.ValidLink(link) {
				log.Printf("[yts] skipping %q [%s]: unusable link %q", movie.Title, torrent.Quality, link)
				continue
			}
			results = append(results, models.TorrentResult{
				ID:     fmt.Sprintf("%s-%s", movieID, torrent.Hash),
				Name:   fmt.Sprintf("%s [%s]", movie.Title, torrent.Quality),
				Size:   torrent.Size,
				Source: y.Name(),
				URL:    link,
				Seeds:  clampCount(int(torrent.Seeds)),
				Peers:  clampCount(int(torrent.Peers)),
			})
		}
	}
	return results, nil
}
