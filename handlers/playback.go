package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vibewatch/models"
	playbacksvc "vibewatch/services/playback"
)

type embedBuilder interface {
	EmbedURL(models.EmbedRequest) (string, error)
}

var _ embedBuilder = (*playbacksvc.Service)(nil)

// PlaybackHandler hands titles off to the third-party embed player.
type PlaybackHandler struct {
	Service embedBuilder
}

func NewPlaybackHandler(s embedBuilder) *PlaybackHandler {
	return &PlaybackHandler{Service: s}
}

func (h *PlaybackHandler) Embed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.EmbedRequest{MediaType: strings.TrimSpace(q.Get("type"))}

	var err error
	if req.TMDBID, err = strconv.ParseInt(strings.TrimSpace(q.Get("id")), 10, 64); err != nil {
		writeJSONError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if raw := q.Get("season"); raw != "" {
		if req.Season, err = strconv.Atoi(raw); err != nil {
			writeJSONError(w, "invalid season", http.StatusBadRequest)
			return
		}
	}
	if raw := q.Get("episode"); raw != "" {
		if req.Episode, err = strconv.Atoi(raw); err != nil {
			writeJSONError(w, "invalid episode", http.StatusBadRequest)
			return
		}
	}

	embedURL, err := h.Service.EmbedURL(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, playbacksvc.ErrEmbedNotSet) {
			status = http.StatusServiceUnavailable
		}
		writeJSONError(w, err.Error(), status)
		return
	}
	writeJSON(w, models.EmbedResponse{URL: embedURL})
}
