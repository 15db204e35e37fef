package models

import (
	"net/url"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// TorrentResult is the normalized record every scraper produces.
type TorrentResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Size   string `json:"size"`
	Source string `json:"source"`
	URL    string `json:"url"`
	Seeds  int    `json:"seeds"`
	Peers  int    `json:"peers"`
}

// IsMagnet reports whether the result links to a magnet URI rather than a .torrent file.
func (r TorrentResult) IsMagnet() bool {
	return strings.HasPrefix(strings.ToLower(r.URL), "magnet:")
}

// QualityInfo is the display badge derived from a release name.
type QualityInfo struct {
	Score     int    `json:"score"`
	Label     string `json:"label"`
	ColorHint string `json:"colorHint"`
}

// TorrentRow pairs a result with its quality badge for API consumers.
type TorrentRow struct {
	TorrentResult
	Quality QualityInfo `json:"quality"`
}

// ValidLink reports whether link is a magnet URI carrying a btih info hash
// or an absolute http(s) URL. No other scheme is accepted.
func ValidLink(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(link), "magnet:") {
		_, err := metainfo.ParseMagnetUri(link)
		return err == nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}
