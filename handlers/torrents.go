package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"vibewatch/models"
	playbacksvc "vibewatch/services/playback"
	"vibewatch/services/scraper"
)

type torrentSearcher interface {
	SearchAll(context.Context, string) []models.TorrentResult
	SearchAllDetailed(context.Context, string) scraper.SearchReport
	AvailableSources() []string
}

var _ torrentSearcher = (*scraper.Registry)(nil)

type searchRecorder interface {
	RecordSearch(context.Context, string) (models.SearchHistoryEntry, error)
}

type torrentFileFetcher interface {
	FetchTorrentFile(context.Context, string) (*models.TorrentFile, error)
}

var _ torrentFileFetcher = (*playbacksvc.Service)(nil)

type TorrentsHandler struct {
	mu      sync.RWMutex
	search  torrentSearcher
	History searchRecorder
	Files   torrentFileFetcher
}

func NewTorrentsHandler(search torrentSearcher, history searchRecorder, files torrentFileFetcher) *TorrentsHandler {
	return &TorrentsHandler{search: search, History: history, Files: files}
}

// SetSearcher swaps the scraper set, e.g. after a settings change. Searches
// already running finish against the previous set.
func (h *TorrentsHandler) SetSearcher(search torrentSearcher) {
	h.mu.Lock()
	h.search = search
	h.mu.Unlock()
}

func (h *TorrentsHandler) searcher() torrentSearcher {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.search
}

// DetailedSearchResponse is the ?detailed=1 form of a torrent search.
type DetailedSearchResponse struct {
	Query   string                  `json:"query"`
	Results []models.TorrentRow     `json:"results"`
	Sources []scraper.SourceOutcome `json:"sources"`
	Failed  int                     `json:"failed"`
}

// SearchTorrents fans the query out to every configured source and returns
// the merged rows, most seeded first.
func (h *TorrentsHandler) SearchTorrents(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "query is required", http.StatusBadRequest)
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))

	if h.History != nil {
		if _, err := h.History.RecordSearch(r.Context(), query); err != nil {
			log.Printf("[torrents] record search %q: %v", query, err)
		}
	}

	if !detailed {
		writeJSON(w, scraper.Rows(h.searcher().SearchAll(r.Context(), query)))
		return
	}

	report := h.searcher().SearchAllDetailed(r.Context(), query)
	outcomes := report.Outcomes
	if outcomes == nil {
		outcomes = []scraper.SourceOutcome{}
	}
	writeJSON(w, DetailedSearchResponse{
		Query:   report.Query,
		Results: scraper.Rows(report.Results),
		Sources: outcomes,
		Failed:  report.Failed,
	})
}

func (h *TorrentsHandler) Sources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.searcher().AvailableSources())
}

// TorrentFile proxies a .torrent download after validating the payload.
func (h *TorrentsHandler) TorrentFile(w http.ResponseWriter, r *http.Request) {
	if h.Files == nil {
		writeJSONError(w, "torrent downloads are not available", http.StatusServiceUnavailable)
		return
	}
	link := strings.TrimSpace(r.URL.Query().Get("url"))
	if link == "" {
		writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	file, err := h.Files.FetchTorrentFile(r.Context(), link)
	if err != nil {
		switch {
		case errors.Is(err, playbacksvc.ErrNotTorrentURL):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, playbacksvc.ErrNotTorrent), errors.Is(err, playbacksvc.ErrTooLarge):
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			writeUpstreamError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/x-bittorrent")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if file.InfoHash != "" {
		w.Header().Set("X-Info-Hash", file.InfoHash)
	}
	if _, err := w.Write(file.Data); err != nil {
		log.Printf("[torrents] write torrent file: %v", err)
	}
}
