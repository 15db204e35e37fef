package scraper

import (
	"context"
	"log"
	"strings"
	"time"

	"vibewatch/config"
	"vibewatch/models"
	"vibewatch/utils/httpclient"
)

// Registry is the ordered set of scrapers a search fans out to. It is fixed
// at construction; rebuilding the registry is the only way to change it.
type Registry struct {
	scrapers   []Scraper
	aggregator *Aggregator
}

// NewRegistry returns a registry over scrapers in the given order. Nil
// entries are ignored.
func NewRegistry(scrapers ...Scraper) *Registry {
	agg := NewAggregator(scrapers...)
	return &Registry{scrapers: agg.scrapers, aggregator: agg}
}

// SearchAll queries every registered scraper and returns the merged results
// sorted by seeds. It never fails; unreachable sources contribute nothing.
func (r *Registry) SearchAll(ctx context.Context, query string) []models.TorrentResult {
	return r.aggregator.Search(ctx, query)
}

// SearchAllDetailed is SearchAll with per-source outcomes.
func (r *Registry) SearchAllDetailed(ctx context.Context, query string) SearchReport {
	return r.aggregator.SearchDetailed(ctx, query)
}

// AvailableSources returns scraper display names in registration order.
func (r *Registry) AvailableSources() []string {
	names := make([]string, 0, len(r.scrapers))
	for _, s := range r.scrapers {
		names = append(names, scraperName(s))
	}
	return names
}

// Len reports the number of registered scrapers.
func (r *Registry) Len() int {
	return len(r.scrapers)
}

// BuildFromConfig creates scrapers for every enabled torrentScrapers entry.
// Entries with an unknown type or missing required fields are skipped with a
// log line. network.proxyUrl, when set, routes every scraper through the proxy.
func BuildFromConfig(settings config.Settings) *Registry {
	var scrapers []Scraper
	for _, cfg := range settings.TorrentScrapers {
		if !cfg.Enabled {
			continue
		}
		s := buildScraper(cfg, settings.Network.ProxyURL)
		if s != nil {
			scrapers = append(scrapers, s)
		}
	}
	log.Printf("[scraper] registry initialized with %d source(s)", len(scrapers))
	return NewRegistry(scrapers...)
}

func buildScraper(cfg config.TorrentScraperConfig, proxyURL string) Scraper {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	client, err := httpclient.New(timeout, proxyURL)
	if err != nil {
		log.Printf("[scraper] %s: invalid proxy %q, connecting directly: %v", cfg.Name, proxyURL, err)
		client = httpclient.MustNew(timeout, "")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "yts":
		log.Printf("[scraper] Initializing YTS scraper: %s at %s", cfg.Name, cfg.URL)
		return NewYTSScraper(cfg.URL, cfg.Name, client)
	case "apibay", "piratebay", "tpb":
		log.Printf("[scraper] Initializing apibay scraper: %s at %s", cfg.Name, cfg.URL)
		return NewApibayScraper(cfg.URL, cfg.Name, client)
	case "jackett":
		if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
			log.Printf("[scraper] Skipping Jackett scraper %s: missing URL or API key", cfg.Name)
			return nil
		}
		log.Printf("[scraper] Initializing Jackett scraper: %s at %s", cfg.Name, cfg.URL)
		return NewJackettScraper(cfg.URL, cfg.APIKey, cfg.Name, client)
	case "nyaa":
		log.Printf("[scraper] Initializing Nyaa scraper: %s at %s", cfg.Name, cfg.URL)
		return NewNyaaScraper(cfg.URL, cfg.Name, client)
	default:
		log.Printf("[scraper] Unknown scraper type: %s", cfg.Type)
		return nil
	}
}
