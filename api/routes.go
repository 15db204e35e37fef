package api

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"vibewatch/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into a 500 instead of a dropped
// connection.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[api] panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Handlers groups everything Register mounts.
type Handlers struct {
	Settings        *handlers.SettingsHandler
	Torrents        *handlers.TorrentsHandler
	Metadata        *handlers.MetadataHandler
	History         *handlers.HistoryHandler
	Lists           *handlers.ListsHandler
	Recommendations *handlers.RecommendationsHandler
	Playback        *handlers.PlaybackHandler
}

// Register mounts API endpoints onto the provided router.
func Register(r *mux.Router, h Handlers) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoverMiddleware)
	api.Use(corsMiddleware)

	api.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// Settings
	if h.Settings != nil {
		api.HandleFunc("/settings", h.Settings.GetSettings).Methods(http.MethodGet)
		api.HandleFunc("/settings", h.Settings.PutSettings).Methods(http.MethodPut)
		api.HandleFunc("/settings/cache/clear", h.Settings.ClearMetadataCache).Methods(http.MethodPost)
	}

	// Torrent search
	if h.Torrents != nil {
		api.HandleFunc("/torrents/search", h.Torrents.SearchTorrents).Methods(http.MethodGet)
		api.HandleFunc("/torrents/sources", h.Torrents.Sources).Methods(http.MethodGet)
		api.HandleFunc("/torrents/file", h.Torrents.TorrentFile).Methods(http.MethodGet)
	}

	// Metadata
	if h.Metadata != nil {
		api.HandleFunc("/metadata/search", h.Metadata.Search).Methods(http.MethodGet)
		api.HandleFunc("/metadata/{type}/{id}", h.Metadata.Details).Methods(http.MethodGet)
	}

	// Search history and resume positions
	if h.History != nil {
		api.HandleFunc("/history/searches", h.History.ListSearches).Methods(http.MethodGet)
		api.HandleFunc("/history/searches", h.History.ClearSearches).Methods(http.MethodDelete)
		api.HandleFunc("/progress", h.History.ListProgress).Methods(http.MethodGet)
		api.HandleFunc("/progress/{type}/{id}", h.History.GetProgress).Methods(http.MethodGet)
		api.HandleFunc("/progress/{type}/{id}", h.History.UpdateProgress).Methods(http.MethodPut)
		api.HandleFunc("/progress/{type}/{id}", h.History.DeleteProgress).Methods(http.MethodDelete)
	}

	// Watchlist and favorites
	if h.Lists != nil {
		api.HandleFunc("/lists/{list}", h.Lists.List).Methods(http.MethodGet)
		api.HandleFunc("/lists/{list}", h.Lists.Add).Methods(http.MethodPost)
		api.HandleFunc("/lists/{list}/{type}/{id}", h.Lists.Remove).Methods(http.MethodDelete)
	}

	if h.Recommendations != nil {
		api.HandleFunc("/recommendations", h.Recommendations.Recommend).Methods(http.MethodPost)
	}

	if h.Playback != nil {
		api.HandleFunc("/playback/embed", h.Playback.Embed).Methods(http.MethodGet)
	}

	// Preflight for every API path; corsMiddleware answers before this runs.
	api.PathPrefix("/").HandlerFunc(handlers.Options).Methods(http.MethodOptions)
}
