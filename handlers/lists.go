package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"vibewatch/models"
	"vibewatch/services/watchlist"
)

type listService interface {
	List(context.Context, string) ([]models.WatchlistItem, error)
	Add(context.Context, string, models.WatchlistUpsert) (models.WatchlistItem, error)
	Remove(context.Context, string, string, string) (bool, error)
}

var _ listService = (*watchlist.Service)(nil)

// ListsHandler serves the watchlist and favorites lists.
type ListsHandler struct {
	Service listService
}

func NewListsHandler(service listService) *ListsHandler {
	return &ListsHandler{Service: service}
}

func (h *ListsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), mux.Vars(r)["list"])
	if err != nil {
		writeListError(w, err)
		return
	}
	writeJSON(w, items)
}

func (h *ListsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body models.WatchlistUpsert
	if err := decodeBody(w, r, &body); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(r.Context(), mux.Vars(r)["list"], body)
	if err != nil {
		writeListError(w, err)
		return
	}
	writeJSON(w, item)
}

func (h *ListsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	removed, err := h.Service.Remove(r.Context(), vars["list"], vars["type"], vars["id"])
	if err != nil {
		writeListError(w, err)
		return
	}
	if !removed {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeListError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, watchlist.ErrUnknownList):
		status = http.StatusNotFound
	case errors.Is(err, watchlist.ErrIDRequired),
		errors.Is(err, watchlist.ErrMediaTypeRequired),
		errors.Is(err, watchlist.ErrIdentifierRequired):
		status = http.StatusBadRequest
	}
	writeJSONError(w, err.Error(), status)
}
