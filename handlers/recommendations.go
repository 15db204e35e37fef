package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"vibewatch/models"
	"vibewatch/services/recommend"
)

type recommender interface {
	Recommend(context.Context, string) ([]models.Recommendation, error)
}

var _ recommender = (*recommend.Service)(nil)

type RecommendationsHandler struct {
	Service recommender
}

func NewRecommendationsHandler(s recommender) *RecommendationsHandler {
	return &RecommendationsHandler{Service: s}
}

func (h *RecommendationsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Vibe string `json:"vibe"`
	}
	if err := decodeBody(w, r, &request); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	items, err := h.Service.Recommend(r.Context(), request.Vibe)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrVibeRequired):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, recommend.ErrDisabled), errors.Is(err, recommend.ErrGeneratorNotConfigured):
			writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			log.Printf("[recommend] vibe %q failed after %v: %v", request.Vibe, time.Since(start), err)
			writeUpstreamError(w, err)
		}
		return
	}
	if items == nil {
		items = []models.Recommendation{}
	}

	writeJSON(w, models.RecommendationResponse{Vibe: request.Vibe, Items: items})
}
