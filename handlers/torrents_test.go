package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vibewatch/models"
	playbacksvc "vibewatch/services/playback"
	"vibewatch/services/scraper"
)

type fakeTorrentSearcher struct {
	results   []models.TorrentResult
	report    scraper.SearchReport
	sources   []string
	lastQuery string
}

func (f *fakeTorrentSearcher) SearchAll(_ context.Context, query string) []models.TorrentResult {
	f.lastQuery = query
	return f.results
}

func (f *fakeTorrentSearcher) SearchAllDetailed(_ context.Context, query string) scraper.SearchReport {
	f.lastQuery = query
	return f.report
}

func (f *fakeTorrentSearcher) AvailableSources() []string {
	return f.sources
}

type fakeSearchRecorder struct {
	queries []string
	err     error
}

func (f *fakeSearchRecorder) RecordSearch(_ context.Context, query string) (models.SearchHistoryEntry, error) {
	f.queries = append(f.queries, query)
	return models.SearchHistoryEntry{Query: query}, f.err
}

type fakeTorrentFetcher struct {
	file *models.TorrentFile
	err  error
}

func (f *fakeTorrentFetcher) FetchTorrentFile(_ context.Context, _ string) (*models.TorrentFile, error) {
	return f.file, f.err
}

func TestTorrentsHandler_Search(t *testing.T) {
	search := &fakeTorrentSearcher{results: []models.TorrentResult{
		{ID: "b", Name: "Dune.2021.2160p.WEB-DL", Source: "TPB", URL: "magnet:?xt=urn:btih:b", Seeds: 50},
		{ID: "a", Name: "Dune 2021 720p", Source: "YTS", URL: "https://yts.mx/a", Seeds: 5},
	}}
	recorder := &fakeSearchRecorder{err: errors.New("disk full")}
	handler := NewTorrentsHandler(search, recorder, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/torrents/search?q=+dune+", nil)
	rec := httptest.NewRecorder()
	handler.SearchTorrents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if search.lastQuery != "dune" {
		t.Fatalf("expected trimmed query, got %q", search.lastQuery)
	}
	if len(recorder.queries) != 1 || recorder.queries[0] != "dune" {
		t.Fatalf("expected query recorded once, got %v", recorder.queries)
	}

	var rows []models.TorrentRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "b" || rows[1].ID != "a" {
		t.Fatalf("expected order preserved, got %+v", rows)
	}
	if rows[0].Quality.Label != "4K" || rows[1].Quality.Label != "720p" {
		t.Fatalf("unexpected quality badges: %+v / %+v", rows[0].Quality, rows[1].Quality)
	}
}

func TestTorrentsHandler_SearchEmptyResultsIsArray(t *testing.T) {
	handler := NewTorrentsHandler(&fakeTorrentSearcher{}, nil, nil)

	rec := httptest.NewRecorder()
	handler.SearchTorrents(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/search?q=nothing", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestTorrentsHandler_SearchRequiresQuery(t *testing.T) {
	recorder := &fakeSearchRecorder{}
	handler := NewTorrentsHandler(&fakeTorrentSearcher{}, recorder, nil)

	rec := httptest.NewRecorder()
	handler.SearchTorrents(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/search?q=%20", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if len(recorder.queries) != 0 {
		t.Fatalf("blank query should not be recorded")
	}
}

func TestTorrentsHandler_SearchDetailed(t *testing.T) {
	search := &fakeTorrentSearcher{report: scraper.SearchReport{
		Query:   "alien",
		Results: []models.TorrentResult{{ID: "x", Name: "Alien 1979 1080p", Source: "YTS", URL: "https://yts.mx/x", Seeds: 9}},
		Outcomes: []scraper.SourceOutcome{
			{Source: "YTS", Count: 1, TookMs: 12},
			{Source: "TPB", Error: "timeout", TookMs: 10000},
		},
		Failed: 1,
	}}
	handler := NewTorrentsHandler(search, nil, nil)

	rec := httptest.NewRecorder()
	handler.SearchTorrents(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/search?q=alien&detailed=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	var payload DetailedSearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Failed != 1 || len(payload.Sources) != 2 || payload.Sources[1].Error != "timeout" {
		t.Fatalf("unexpected outcomes: %+v", payload)
	}
	if len(payload.Results) != 1 || payload.Results[0].Quality.Label != "1080p" {
		t.Fatalf("unexpected results: %+v", payload.Results)
	}
}

func TestTorrentsHandler_Sources(t *testing.T) {
	handler := NewTorrentsHandler(&fakeTorrentSearcher{sources: []string{"YTS", "TPB"}}, nil, nil)

	rec := httptest.NewRecorder()
	handler.Sources(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/sources", nil))

	var sources []string
	if err := json.Unmarshal(rec.Body.Bytes(), &sources); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(sources) != 2 || sources[0] != "YTS" || sources[1] != "TPB" {
		t.Fatalf("unexpected sources: %v", sources)
	}
}

func TestTorrentsHandler_TorrentFile(t *testing.T) {
	fetcher := &fakeTorrentFetcher{file: &models.TorrentFile{
		FileName: "Dune.torrent",
		InfoHash: "0123456789abcdef0123456789abcdef01234567",
		Data:     []byte("d8:announce0:e"),
	}}
	handler := NewTorrentsHandler(&fakeTorrentSearcher{}, nil, fetcher)

	rec := httptest.NewRecorder()
	handler.TorrentFile(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/file?url=https://yts.mx/t/1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-bittorrent" {
		t.Fatalf("unexpected content-type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Dune.torrent"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "d8:announce0:e" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestTorrentsHandler_TorrentFileErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		err  error
		want int
	}{
		{"missing url", "", nil, http.StatusBadRequest},
		{"magnet", "magnet:?xt=urn:btih:abc", playbacksvc.ErrNotTorrentURL, http.StatusBadRequest},
		{"not a torrent", "https://x/y", playbacksvc.ErrNotTorrent, http.StatusUnprocessableEntity},
		{"too large", "https://x/y", playbacksvc.ErrTooLarge, http.StatusUnprocessableEntity},
		{"upstream", "https://x/y", errors.New("download torrent failed: 503"), http.StatusBadGateway},
		{"timeout", "https://x/y", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTorrentsHandler(&fakeTorrentSearcher{}, nil, &fakeTorrentFetcher{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/api/torrents/file", nil)
			if tt.url != "" {
				q := req.URL.Query()
				q.Set("url", tt.url)
				req.URL.RawQuery = q.Encode()
			}
			rec := httptest.NewRecorder()
			handler.TorrentFile(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			var payload map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload["error"] == "" || payload["error"] == nil {
				t.Fatalf("expected error message, got %v", payload)
			}
		})
	}
}
