package models

// LinkKind tells the player how to hand a result off.
type LinkKind string

const (
	LinkMagnet      LinkKind = "magnet"
	LinkTorrentFile LinkKind = "torrent"
	LinkUnknown     LinkKind = "unknown"
)

// EmbedRequest identifies what the third-party player should open.
type EmbedRequest struct {
	MediaType string `json:"mediaType"`
	TMDBID    int64  `json:"tmdbId"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
}

// EmbedResponse carries the player URL built for an EmbedRequest.
type EmbedResponse struct {
	URL string `json:"url"`
}

// TorrentFile is a downloaded and validated .torrent payload.
type TorrentFile struct {
	FileName    string `json:"fileName"`
	DisplayName string `json:"displayName,omitempty"`
	InfoHash    string `json:"infoHash,omitempty"`
	TotalBytes  int64  `json:"totalBytes,omitempty"`
	Data        []byte `json:"-"`
}
