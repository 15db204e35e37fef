package models

import "time"

// SearchHistoryEntry records a query the user ran. Results are never stored.
type SearchHistoryEntry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	SearchedAt time.Time `json:"searchedAt"`
}

// PlaybackProgressUpdate represents a playback progress update from the player.
type PlaybackProgressUpdate struct {
	Season          int     `json:"season,omitempty"`
	Episode         int     `json:"episode,omitempty"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// PlaybackProgress stores the resume position for a movie or series. For a
// series it tracks the most recently played episode.
type PlaybackProgress struct {
	MediaType       string    `json:"mediaType"` // movie | tv
	ID              string    `json:"id"`
	Season          int       `json:"season,omitempty"`
	Episode         int       `json:"episode,omitempty"`
	PositionSeconds float64   `json:"positionSeconds"`
	DurationSeconds float64   `json:"durationSeconds"`
	PercentWatched  float64   `json:"percentWatched"`
	Completed       bool      `json:"completed"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
