package main

import (
	"bytes"
	"strings"
	"testing"

	"vibewatch/config"
	"vibewatch/models"
	"vibewatch/services/scraper"
)

func TestRenderResults(t *testing.T) {
	results := []models.TorrentResult{
		{ID: "b", Name: "Dune.2021.2160p.WEB-DL", Size: "14.20 GB", Source: "TPB", Seeds: 50, Peers: 4},
		{ID: "a", Name: "Dune (2021) [720p]", Size: "1.1 GB", Source: "YTS", Seeds: 5, Peers: 1},
		{ID: "c", Name: "Dune Part Two", Size: "2 GB", Source: "YTS", Seeds: 1},
	}

	var buf bytes.Buffer
	if err := renderResults(&buf, results, 2); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Dune.2021.2160p.WEB-DL", "4K", "14.20 GB", "TPB", "720p"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dune Part Two") {
		t.Fatalf("limit should cut the third row:\n%s", out)
	}
	if strings.Index(out, "TPB") > strings.Index(out, "YTS") {
		t.Fatalf("rows must keep the given order:\n%s", out)
	}
}

func TestRenderResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := renderResults(&buf, nil, 10); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No results." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	report := scraper.SearchReport{
		Results: []models.TorrentResult{{ID: "a"}},
		Outcomes: []scraper.SourceOutcome{
			{Source: "YTS", Count: 1, TookMs: 120},
			{Source: "TPB", Error: "status 503", TookMs: 80},
		},
		Failed: 1,
	}

	var buf bytes.Buffer
	if err := renderSummary(&buf, report); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"YTS", "120ms", "status 503", "1 results from 2 sources (1 failed)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFilterScrapers(t *testing.T) {
	all := []config.TorrentScraperConfig{{Name: "YTS"}, {Name: "PirateBay"}, {Name: "Anime"}}
	got := filterScrapers(all, []string{" piratebay", "ANIME"})
	if len(got) != 2 || got[0].Name != "PirateBay" || got[1].Name != "Anime" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("unexpected %q", got)
	}
}
