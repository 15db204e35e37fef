package models

import "time"

// Named user lists backed by the key-value store.
const (
	ListWatchlist = "watchlist"
	ListFavorites = "favorites"
)

// WatchlistItem represents a media entry saved by the user for quick access.
type WatchlistItem struct {
	ID         string    `json:"id"`
	MediaType  string    `json:"mediaType"` // movie | tv
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	Year       int       `json:"year,omitempty"`
	AddedAt    time.Time `json:"addedAt"`
}

// WatchlistUpsert captures data required to insert or update a list item.
type WatchlistUpsert struct {
	ID         string `json:"id"`
	MediaType  string `json:"mediaType"`
	Title      string `json:"title"`
	PosterPath string `json:"posterPath,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Key returns a stable identifier for the watchlist item combining media type and ID.
func (w WatchlistItem) Key() string {
	return w.MediaType + ":" + w.ID
}
