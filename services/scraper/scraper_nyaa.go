package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vibewatch/models"
	"vibewatch/utils/httpclient"
)

const nyaaDefaultBaseURL = "https://nyaa.si"

var nyaaViewID = regexp.MustCompile(`/view/(\d+)`)

// NyaaScraper scrapes the nyaa HTML search listing.
type NyaaScraper struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewNyaaScraper constructs a nyaa scraper. An empty name falls back to "Nyaa".
func NewNyaaScraper(baseURL, name string, client *http.Client) *NyaaScraper {
	if client == nil {
		client = &http.Client{Timeout: httpclient.DefaultTimeout}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = nyaaDefaultBaseURL
	}
	return &NyaaScraper{
		name:       strings.TrimSpace(name),
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (n *NyaaScraper) Name() string {
	if n.name != "" {
		return n.name
	}
	return "Nyaa"
}

func (n *NyaaScraper) Search(ctx context.Context, query string) ([]models.TorrentResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("f", "0")
	params.Set("c", "0_0")
	params.Set("q", query)
	pageURL := fmt.Sprintf("%s/?%s", n.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nyaa request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nyaa returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse nyaa page: %w", err)
	}

	results := n.parseDocument(doc)
	log.Printf("[nyaa] %d results for %q", len(results), query)
	return results, nil
}

func (n *NyaaScraper) parseDocument(doc *goquery.Document) []models.TorrentResult {
	results := make([]models.TorrentResult, 0)
	seen := make(map[string]struct{})
	doc.Find("table.torrent-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		res, ok := n.parseRow(row)
		if !ok {
			return
		}
		if _, dup := seen[res.ID]; dup {
			return
		}
		seen[res.ID] = struct{}{}
		results = append(results, res)
	})
	return results
}

// parseRow reads one listing row. The title cell may start with a comments
// link, so the last /view/ link is taken as the title.
func (n *NyaaScraper) parseRow(row *goquery.Selection) (models.TorrentResult, bool) {
	var id, name string
	row.Find("td:nth-child(2) a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if strings.Contains(href, "#comments") {
			return
		}
		if m := nyaaViewID.FindStringSubmatch(href); len(m) > 1 {
			id = m[1]
			name = strings.TrimSpace(link.AttrOr("title", link.Text()))
		}
	})
	if id == "" || name == "" {
		return models.TorrentResult{}, false
	}

	var magnet, torrentURL string
	row.Find("td:nth-child(3) a").Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		switch {
		case strings.HasPrefix(href, "magnet:"):
			magnet = href
		case strings.HasSuffix(href, ".torrent"):
			torrentURL = n.absolute(href)
		}
	})
	link := magnet
	if link == "" {
		link = torrentURL
	}
	if !models.ValidLink(link) {
		return models.TorrentResult{}, false
	}

	return models.TorrentResult{
		ID:     id,
		Name:   name,
		Size:   strings.TrimSpace(row.Find("td:nth-child(4)").Text()),
		Source: n.Name(),
		URL:    link,
		Seeds:  parseCount(row.Find("td:nth-child(6)").Text()),
		Peers:  parseCount(row.Find("td:nth-child(7)").Text()),
	}, true
}

func (n *NyaaScraper) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return n.baseURL + "/" + strings.TrimLeft(href, "/")
}
