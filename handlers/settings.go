package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"vibewatch/config"
	"vibewatch/services/scraper"
)

type metadataCache interface {
	ClearCache()
	CacheSize() int
}

type SettingsHandler struct {
	Manager  *config.Manager
	Torrents *TorrentsHandler
	Metadata metadataCache
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// SetTorrentsHandler lets a settings change rebuild the scraper registry.
func (h *SettingsHandler) SetTorrentsHandler(t *TorrentsHandler) {
	h.Torrents = t
}

// SetMetadataCache exposes the metadata response cache for clearing.
func (h *SettingsHandler) SetMetadataCache(c metadataCache) {
	h.Metadata = c
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s)
}

func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	// Unknown fields are tolerated so older clients can still save.
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Manager.Save(s); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	saved, err := h.Manager.Load()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.reloadServices(saved)
	writeJSON(w, saved)
}

// reloadServices rebuilds services that capture configuration at startup.
func (h *SettingsHandler) reloadServices(s config.Settings) {
	s.ApplyEnv()
	if h.Torrents != nil {
		registry := scraper.BuildFromConfig(s)
		h.Torrents.SetSearcher(registry)
		log.Printf("[settings] reloaded torrent scrapers: %v", registry.AvailableSources())
	}
}

// ClearMetadataCache drops every cached metadata response.
func (h *SettingsHandler) ClearMetadataCache(w http.ResponseWriter, r *http.Request) {
	if h.Metadata == nil {
		writeJSONError(w, "metadata service not available", http.StatusInternalServerError)
		return
	}
	cleared := h.Metadata.CacheSize()
	h.Metadata.ClearCache()
	log.Printf("[settings] metadata cache cleared by user request (%d entries)", cleared)
	writeJSON(w, map[string]interface{}{"status": "ok", "cleared": cleared})
}
