package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"vibewatch/models"
	metadatapkg "vibewatch/services/metadata"
)

type metadataService interface {
	Search(context.Context, string, string) ([]models.Title, error)
	Details(context.Context, string, int64) (*models.Title, error)
	Episodes(context.Context, int64, int) ([]models.SeriesEpisode, error)
	ExternalIDs(context.Context, string, int64) (models.ExternalIDs, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "query is required", http.StatusBadRequest)
		return
	}
	rawType := strings.TrimSpace(r.URL.Query().Get("type"))
	mediaType := models.NormalizeMediaType(rawType)
	if rawType != "" && mediaType == "" {
		writeJSONError(w, "type must be movie or tv", http.StatusBadRequest)
		return
	}

	results, err := h.Service.Search(r.Context(), query, mediaType)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, results)
}

// Details returns one title. ?season=N on a series returns that season's
// episodes instead; ?external=1 returns cross-reference ids.
func (h *MetadataHandler) Details(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := titleFromPath(w, r)
	if !ok {
		return
	}

	if external, _ := strconv.ParseBool(r.URL.Query().Get("external")); external {
		ids, err := h.Service.ExternalIDs(r.Context(), mediaType, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, ids)
		return
	}

	if rawSeason := r.URL.Query().Get("season"); rawSeason != "" {
		season, err := strconv.Atoi(rawSeason)
		if err != nil || season < 0 || mediaType != models.MediaTypeTV {
			writeJSONError(w, "season requires a tv title and a non-negative number", http.StatusBadRequest)
			return
		}
		episodes, err := h.Service.Episodes(r.Context(), id, season)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, episodes)
		return
	}

	title, err := h.Service.Details(r.Context(), mediaType, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, title)
}

func (h *MetadataHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, metadatapkg.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, metadatapkg.ErrNotConfigured):
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		writeUpstreamError(w, err)
	}
}

// titleFromPath reads {type}/{id} route variables, writing a 400 when either
// is invalid.
func titleFromPath(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	vars := mux.Vars(r)
	mediaType := models.NormalizeMediaType(vars["type"])
	if mediaType == "" {
		writeJSONError(w, "type must be movie or tv", http.StatusBadRequest)
		return "", 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(vars["id"]), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return "", 0, false
	}
	return mediaType, id, true
}
