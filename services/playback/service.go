// Package playback prepares results for hand-off to an external player:
// embed URLs for streaming by TMDB id and validated .torrent downloads.
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/gabriel-vasile/mimetype"

	"vibewatch/models"
)

const (
	bittorrentMIME = "application/x-bittorrent"

	// MaxTorrentFileSize caps a downloaded .torrent.
	MaxTorrentFileSize = 10 * 1024 * 1024

	fetchTimeout = 15 * time.Second
)

var (
	ErrInvalidMediaType = errors.New("media type must be movie or tv")
	ErrInvalidID        = errors.New("tmdb id must be positive")
	ErrEpisodeRequired  = errors.New("season and episode are required for tv")
	ErrEmbedNotSet      = errors.New("embed base url not configured")
	ErrNotTorrentURL    = errors.New("url is not a torrent file link")
	ErrNotTorrent       = errors.New("payload is not a bittorrent file")
	ErrTooLarge         = errors.New("torrent file exceeds size limit")
)

// EmbedURL builds <base>/movie/<id> or <base>/tv/<id>/<season>/<episode>.
func EmbedURL(base, mediaType string, tmdbID int64, season, episode int) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", ErrEmbedNotSet
	}
	if tmdbID <= 0 {
		return "", ErrInvalidID
	}
	id := strconv.FormatInt(tmdbID, 10)

	switch models.NormalizeMediaType(mediaType) {
	case models.MediaTypeMovie:
		return url.JoinPath(base, "movie", id)
	case models.MediaTypeTV:
		if season <= 0 || episode <= 0 {
			return "", ErrEpisodeRequired
		}
		return url.JoinPath(base, "tv", id, strconv.Itoa(season), strconv.Itoa(episode))
	default:
		return "", ErrInvalidMediaType
	}
}

// ClassifyLink reports whether link is a magnet URI or a downloadable
// .torrent URL.
func ClassifyLink(link string) models.LinkKind {
	if !models.ValidLink(link) {
		return models.LinkUnknown
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(link)), "magnet:") {
		return models.LinkMagnet
	}
	return models.LinkTorrentFile
}

// Service downloads .torrent files on behalf of clients.
type Service struct {
	httpClient   *http.Client
	embedBaseURL string
}

func NewService(embedBaseURL string, httpc *http.Client) *Service {
	if httpc == nil {
		httpc = &http.Client{Timeout: fetchTimeout}
	}
	return &Service{httpClient: httpc, embedBaseURL: embedBaseURL}
}

// EmbedURL builds the player URL against the configured base.
func (s *Service) EmbedURL(req models.EmbedRequest) (string, error) {
	return EmbedURL(s.embedBaseURL, req.MediaType, req.TMDBID, req.Season, req.Episode)
}

// FetchTorrentFile downloads link and accepts it only when the payload is a
// bittorrent metainfo file no larger than MaxTorrentFileSize.
func (s *Service) FetchTorrentFile(ctx context.Context, link string) (*models.TorrentFile, error) {
	if ClassifyLink(link) != models.LinkTorrentFile {
		return nil, ErrNotTorrentURL
	}
	log.Printf("[playback] fetching torrent url=%q", link)

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("build torrent request: %w", err)
	}
	req.Header.Set("Accept", bittorrentMIME+", */*;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download torrent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("download torrent failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if resp.ContentLength > MaxTorrentFileSize {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxTorrentFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read torrent body: %w", err)
	}
	if len(data) > MaxTorrentFileSize {
		return nil, ErrTooLarge
	}

	file, err := inspectTorrent(data)
	if err != nil {
		return nil, err
	}
	file.FileName = deriveFileName(resp, link, file.DisplayName)
	log.Printf("[playback] torrent ok name=%q infohash=%s size=%d", file.DisplayName, file.InfoHash, len(data))
	return file, nil
}

// inspectTorrent sniffs the payload and decodes its info dictionary.
// Trackerless files do not start with the announce key the sniffer looks
// for, so a payload that decodes as metainfo is accepted either way.
func inspectTorrent(data []byte) (*models.TorrentFile, error) {
	sniffed := mimetype.Detect(data)
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		if sniffed.Is(bittorrentMIME) {
			return nil, fmt.Errorf("%w: %v", ErrNotTorrent, err)
		}
		return nil, fmt.Errorf("%w: detected %s", ErrNotTorrent, sniffed.String())
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTorrent, err)
	}
	return &models.TorrentFile{
		DisplayName: info.Name,
		InfoHash:    mi.HashInfoBytes().HexString(),
		TotalBytes:  info.TotalLength(),
		Data:        data,
	}, nil
}

func deriveFileName(resp *http.Response, link, displayName string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return ensureTorrentExtension(path.Base(params["filename"]))
		}
	}

	if displayName = sanitizeFileName(displayName); displayName != "" {
		return ensureTorrentExtension(displayName)
	}

	if parsed, err := url.Parse(link); err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "/" && base != "." {
			return ensureTorrentExtension(base)
		}
	}
	return "download.torrent"
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '.'
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_' || r == '[' || r == ']':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(name))
}

func ensureTorrentExtension(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".torrent") {
		return name
	}
	return name + ".torrent"
}
