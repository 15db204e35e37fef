package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vibewatch/models"
)

// Scraper describes a pluggable torrent search backend.
//
// Implementations report transport, status and decoding failures as errors;
// the Aggregator turns those into an empty contribution so a single backend
// never fails an aggregate search.
type Scraper interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.TorrentResult, error)
}

// SourceOutcome records what one scraper contributed to an aggregate search.
type SourceOutcome struct {
	Source   string                 `json:"source"`
	Results  []models.TorrentResult `json:"-"`
	Count    int                    `json:"count"`
	Err      error                  `json:"-"`
	Error    string                 `json:"error,omitempty"`
	Duration time.Duration          `json:"-"`
	TookMs   int64                  `json:"tookMs"`
}

// Failed reports whether the scraper errored or panicked.
func (o SourceOutcome) Failed() bool {
	return o.Err != nil
}

// SearchReport is the detailed form of an aggregate search.
type SearchReport struct {
	Query    string                 `json:"query"`
	Results  []models.TorrentResult `json:"results"`
	Outcomes []SourceOutcome        `json:"sources"`
	Failed   int                    `json:"failed"`
}

// Err joins the failures of every source that failed, or returns nil.
func (r SearchReport) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", o.Source, o.Err))
		}
	}
	return errors.Join(errs...)
}
