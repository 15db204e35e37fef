package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"vibewatch/models"
)

// Aggregator fans a query out to every scraper concurrently and merges the
// results. It never fails: a scraper that errors or panics contributes
// nothing and is reported in the SearchReport outcomes.
type Aggregator struct {
	scrapers []Scraper
}

// NewAggregator returns an aggregator over the given scrapers in order.
func NewAggregator(scrapers ...Scraper) *Aggregator {
	list := make([]Scraper, 0, len(scrapers))
	for _, s := range scrapers {
		if s != nil {
			list = append(list, s)
		}
	}
	return &Aggregator{scrapers: list}
}

// Search returns the merged, seed-sorted results for query.
func (a *Aggregator) Search(ctx context.Context, query string) []models.TorrentResult {
	return a.SearchDetailed(ctx, query).Results
}

// SearchDetailed runs every scraper, waits for all of them, and returns the
// merged results with one outcome per scraper in registration order.
func (a *Aggregator) SearchDetailed(ctx context.Context, query string) SearchReport {
	report := SearchReport{
		Query:    query,
		Results:  []models.TorrentResult{},
		Outcomes: make([]SourceOutcome, len(a.scrapers)),
	}
	if len(a.scrapers) == 0 {
		return report
	}

	var wg conc.WaitGroup
	for i, s := range a.scrapers {
		i, s := i, s
		wg.Go(func() {
			report.Outcomes[i] = runScraper(ctx, s, query)
		})
	}
	wg.Wait()

	for _, outcome := range report.Outcomes {
		if outcome.Failed() {
			report.Failed++
			continue
		}
		report.Results = append(report.Results, outcome.Results...)
	}
	SortBySeeds(report.Results)

	log.Printf("[scraper] %q: %d results from %d/%d sources", query, len(report.Results), len(report.Outcomes)-report.Failed, len(report.Outcomes))
	return report
}

// runScraper calls one scraper with panic isolation and records its outcome.
func runScraper(ctx context.Context, s Scraper, query string) SourceOutcome {
	name := scraperName(s)
	start := time.Now()

	var (
		results []models.TorrentResult
		err     error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		results, err = s.Search(ctx, query)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		results, err = nil, fmt.Errorf("scraper panicked: %v", recovered.Value)
	}

	outcome := SourceOutcome{Source: name, Duration: time.Since(start)}
	outcome.TookMs = outcome.Duration.Milliseconds()
	if err != nil {
		log.Printf("[scraper] %s search failed: %v", name, err)
		outcome.Err = err
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Results = results
	outcome.Count = len(results)
	log.Printf("[scraper] %s produced %d results for %q in %s", name, len(results), query, outcome.Duration.Round(10*time.Millisecond))
	return outcome
}

// scraperName guards against a Name implementation that panics.
func scraperName(s Scraper) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", s)
		}
	}()
	name = strings.TrimSpace(s.Name())
	if name == "" {
		name = fmt.Sprintf("%T", s)
	}
	return name
}
