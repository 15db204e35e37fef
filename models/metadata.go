package models

import "strings"

// Basic metadata structures for titles and images.

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

type Image struct {
	URL  string `json:"url"`
	Type string `json:"type"` // poster, backdrop, still
}

type Title struct {
	ID             string   `json:"id"` // tmdb:<mediaType>:<tmdbId>
	Name           string   `json:"name"`
	OriginalName   string   `json:"originalName,omitempty"`
	Overview       string   `json:"overview"`
	Year           int      `json:"year"`
	Language       string   `json:"language"`
	Poster         *Image   `json:"poster,omitempty"`
	Backdrop       *Image   `json:"backdrop,omitempty"`
	MediaType      string   `json:"mediaType"` // movie | tv
	TMDBID         int64    `json:"tmdbId"`
	IMDBID         string   `json:"imdbId,omitempty"`
	Popularity     float64  `json:"popularity,omitempty"`
	VoteAverage    float64  `json:"voteAverage,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Status         string   `json:"status,omitempty"`         // For series: Returning Series, Ended, etc.
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"` // movies only
	SeasonCount    int      `json:"seasonCount,omitempty"`    // series only
}

type SeriesEpisode struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Overview       string  `json:"overview"`
	SeasonNumber   int     `json:"seasonNumber"`
	EpisodeNumber  int     `json:"episodeNumber"`
	AiredDate      string  `json:"airedDate,omitempty"`
	RuntimeMinutes int     `json:"runtimeMinutes,omitempty"`
	VoteAverage    float64 `json:"voteAverage,omitempty"`
	Image          *Image  `json:"image,omitempty"`
}

type ExternalIDs struct {
	TMDBID int64  `json:"tmdbId"`
	IMDBID string `json:"imdbId,omitempty"`
	TVDBID int64  `json:"tvdbId,omitempty"`
}

// NormalizeMediaType maps loose spellings (series, show, film) onto
// MediaTypeMovie or MediaTypeTV. Unknown values return "".
func NormalizeMediaType(mediaType string) string {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "movie", "movies", "film":
		return MediaTypeMovie
	case "tv", "series", "show", "shows":
		return MediaTypeTV
	default:
		return ""
	}
}
