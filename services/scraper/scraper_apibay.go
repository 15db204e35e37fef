package scraper

import (
	"context"
	"encoding/json"
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
	apibayDefaultBaseURL = "https://apibay.org"
	// apibay answers an empty search with one placeholder record.
	apibayEmptyInfoHash = "0000000000000000000000000000000000000000"
)

// ApibayScraper queries the Pirate Bay JSON API, which returns a flat array
// of records with numeric fields encoded as strings.
type ApibayScraper struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewApibayScraper constructs an apibay scraper. An empty name falls back to
// "PirateBay".
func NewApibayScraper(baseURL, name string, client *http.Client) *ApibayScraper {
	if client == nil {
		client = &http.Client{Timeout: httpclient.DefaultTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = apibayDefaultBaseURL
	}
	return &ApibayScraper{
		name:       strings.TrimSpace(name),
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (a *ApibayScraper) Name() string {
	if a.name != "" {
		return a.name
	}
	return "PirateBay"
}

type apibayRecord struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	InfoHash string     `json:"info_hash"`
	Size     flexString `json:"size"`
	Seeders  flexString `json:"seeders"`
	Leechers flexString `json:"leechers"`
}

func (a *ApibayScraper) Search(ctx context.Context, query string) ([]models.TorrentResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("cat", "0")
	apiURL := fmt.Sprintf("%s/q.php?%s", a.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apibay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("apibay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var records []apibayRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode apibay response: %w", err)
	}

	results := a.mapRecords(records)
	log.Printf("[apibay] %d results for %q", len(results), query)
	return results, nil
}

func (a *ApibayScraper) mapRecords(records []apibayRecord) []models.TorrentResult {
	results := make([]models.TorrentResult, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		hash := strings.TrimSpace(rec.InfoHash)
		if hash == "" || hash == apibayEmptyInfoHash {
			continue
		}
		id := strings.TrimSpace(string(rec.ID))
		if id == "" {
			id = strings.ToLower(hash)
		}
		if _, dup := seen[id]; dup {
			continue
		}

		magnet := buildMagnetFromHash(hash, rec.Name)
		if !models.ValidLink(magnet) {
			log.Printf("[apibay] skipping %q: invalid info hash %q", rec.Name, hash)
			continue
		}
		seen[id] = struct{}{}

		results = append(results, models.TorrentResult{
			ID:     id,
			Name:   rec.Name,
			Size:   formatSizeString(string(rec.Size)),
			Source: a.Name(),
			URL:    magnet,
			Seeds:  parseCount(string(rec.Seeders)),
			Peers:  parseCount(string(rec.Leechers)),
		})
	}
	return results
}
