package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anacrolix/torrent/metainfo"

	"vibewatch/models"
	"vibewatch/utils/httpclient"
)

// JackettScraper queries Jackett's Torznab API across all configured indexers.
type JackettScraper struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewJackettScraper constructs a Jackett scraper with the given URL and API key.
// The name parameter is the user-configured display name (empty falls back to "Jackett").
func NewJackettScraper(baseURL, apiKey, name string, client *http.Client) *JackettScraper {
	if client == nil {
		client = &http.Client{Timeout: httpclient.DefaultTimeout}
	}
	return &JackettScraper{
		name:       strings.TrimSpace(name),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (j *JackettScraper) Name() string {
	if j.name != "" {
		return j.name
	}
	return "Jackett"
}

type torznabRSS struct {
	XMLName xml.Name       `xml:"rss"`
	Channel torznabChannel `xml:"channel"`
}

type torznabChannel struct {
	Items []torznabItem `xml:"item"`
}

type torznabItem struct {
	Title     string           `xml:"title"`
	GUID      string           `xml:"guid"`
	Link      string           `xml:"link"`
	Size      int64            `xml:"size"`
	Enclosure torznabEnclosure `xml:"enclosure"`
	Attrs     []torznabAttr    `xml:"attr"`
}

type torznabEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (j *JackettScraper) Search(ctx context.Context, query string) ([]models.TorrentResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", j.apiKey)
	params.Set("t", "search")
	params.Set("q", query)
	apiURL := fmt.Sprintf("%s/api/v2.0/indexers/all/results/torznab/api?%s", j.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jackett request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jackett returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	results, err := j.parseResponse(body)
	if err != nil {
		return nil, err
	}
	log.Printf("[jackett] %d results for %q", len(results), query)
	return results, nil
}

// parseResponse parses the Torznab XML response. Items keep feed order;
// duplicates by info hash (or torrent URL) are dropped.
func (j *JackettScraper) parseResponse(body []byte) ([]models.TorrentResult, error) {
	var rss torznabRSS
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	results := make([]models.TorrentResult, 0, len(rss.Channel.Items))
	seen := make(map[string]struct{})

	for _, item := range rss.Channel.Items {
		attrs := make(map[string]string, len(item.Attrs))
		for _, attr := range item.Attrs {
			attrs[strings.ToLower(attr.Name)] = attr.Value
		}

		infoHash := strings.ToLower(strings.TrimSpace(attrs["infohash"]))
		if infoHash == "" {
			infoHash = magnetInfoHash(item.Link)
		}
		if infoHash == "" {
			infoHash = magnetInfoHash(item.GUID)
		}

		downloadURL := firstNonEmpty(item.Link, item.Enclosure.URL, item.GUID)

		link := ""
		switch {
		case strings.HasPrefix(strings.ToLower(downloadURL), "magnet:"):
			link = downloadURL
		case infoHash != "":
			link = buildMagnetFromHash(infoHash, item.Title)
		default:
			link = downloadURL
		}
		if !models.ValidLink(link) {
			log.Printf("[jackett] Skipping result with no usable link: %s", item.Title)
			continue
		}

		key := infoHash
		if key == "" {
			key = link
		}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}

		size := item.Size
		if size == 0 {
			size = item.Enclosure.Length
		}
		if size == 0 {
			size, _ = strconv.ParseInt(attrs["size"], 10, 64)
		}

		results = append(results, models.TorrentResult{
			ID:     key,
			Name:   item.Title,
			Size:   formatSize(size),
			Source: j.Name(),
			URL:    link,
			Seeds:  parseCount(attrs["seeders"]),
			Peers:  parseCount(attrs["peers"]),
		})
	}

	return results, nil
}

// magnetInfoHash extracts the lowercase hex info hash from a magnet link.
func magnetInfoHash(link string) string {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(link)), "magnet:") {
		return ""
	}
	m, err := metainfo.ParseMagnetUri(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.ToLower(m.InfoHash.HexString())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
