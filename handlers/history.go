package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vibewatch/models"
	"vibewatch/services/history"
)

type historyService interface {
	SearchHistory(context.Context) ([]models.SearchHistoryEntry, error)
	ClearSearchHistory(context.Context) error

	// Playback Progress methods
	SaveProgress(context.Context, string, string, models.PlaybackProgressUpdate) (models.PlaybackProgress, error)
	Progress(context.Context, string, string) (*models.PlaybackProgress, error)
	ListProgress(context.Context) ([]models.PlaybackProgress, error)
	DeleteProgress(context.Context, string, string) error
}

var _ historyService = (*history.Service)(nil)

type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

func (h *HistoryHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.SearchHistory(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (h *HistoryHandler) ClearSearches(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ClearSearchHistory(r.Context()); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListProgress(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, items)
}

func (h *HistoryHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	progress, err := h.Service.Progress(r.Context(), vars["type"], strings.TrimSpace(vars["id"]))
	if err != nil {
		writeProgressError(w, err)
		return
	}
	if progress == nil {
		writeJSONError(w, "playback progress not found", http.StatusNotFound)
		return
	}
	writeJSON(w, progress)
}

func (h *HistoryHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var update models.PlaybackProgressUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	progress, err := h.Service.SaveProgress(r.Context(), vars["type"], strings.TrimSpace(vars["id"]), update)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	writeJSON(w, progress)
}

func (h *HistoryHandler) DeleteProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.DeleteProgress(r.Context(), vars["type"], strings.TrimSpace(vars["id"])); err != nil {
		writeProgressError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeProgressError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, history.ErrIdentifierRequired), errors.Is(err, history.ErrInvalidProgress):
		status = http.StatusBadRequest
	}
	writeJSONError(w, err.Error(), status)
}
