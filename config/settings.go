package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server          ServerSettings         `json:"server"`
	TorrentScrapers []TorrentScraperConfig `json:"torrentScrapers"`
	Metadata        MetadataSettings       `json:"metadata"`
	Recommendations RecommendationSettings `json:"recommendations"`
	Playback        PlaybackSettings       `json:"playback"`
	Network         NetworkSettings        `json:"network"`
	Database        DatabaseSettings       `json:"database"`
	Log             LogConfig              `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type TorrentScraperConfig struct {
	Name           string `json:"name"`   // Display name reported as the result source
	Type           string `json:"type"`   // "yts", "apibay", "jackett", "nyaa"
	URL            string `json:"url"`    // Base URL of the backend
	APIKey         string `json:"apiKey"` // Jackett only
	Enabled        bool   `json:"enabled"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type MetadataSettings struct {
	BaseURL        string `json:"baseUrl"`
	APIKey         string `json:"apiKey"`
	Language       string `json:"language"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type RecommendationSettings struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	Enabled bool   `json:"enabled"`
}

type PlaybackSettings struct {
	EmbedBaseURL string `json:"embedBaseUrl"`
}

type NetworkSettings struct {
	// ProxyURL routes scraper traffic through socks5:// or http:// proxies.
	ProxyURL string `json:"proxyUrl"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`    // megabytes
	MaxAge     int    `json:"maxAge"`     // days
	MaxBackups int    `json:"maxBackups"` // files
	Compress   bool   `json:"compress"`
}

const (
	defaultScraperTimeoutSeconds  = 10
	defaultMetadataTimeoutSeconds = 15
)

func defaultScrapers() []TorrentScraperConfig {
	return []TorrentScraperConfig{
		{Name: "YTS", Type: "yts", URL: "https://yts.mx", Enabled: true, TimeoutSeconds: defaultScraperTimeoutSeconds},
		{Name: "PirateBay", Type: "apibay", URL: "https://apibay.org", Enabled: true, TimeoutSeconds: defaultScraperTimeoutSeconds},
	}
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:          ServerSettings{Host: "0.0.0.0", Port: 7777},
		TorrentScrapers: defaultScrapers(),
		Metadata: MetadataSettings{
			BaseURL:        "https://api.themoviedb.org/3",
			Language:       "en-US",
			TimeoutSeconds: defaultMetadataTimeoutSeconds,
		},
		Recommendations: RecommendationSettings{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Playback: PlaybackSettings{EmbedBaseURL: "https://vidsrc.xyz/embed"},
		Database: DatabaseSettings{Path: "cache/vibewatch.db"},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	fs   afero.Fs
	path string
}

func NewManager(configPath string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), configPath)
}

// NewManagerWithFs is NewManager over an arbitrary filesystem.
func NewManagerWithFs(fsys afero.Fs, configPath string) *Manager {
	return &Manager{fs: fsys, path: configPath}
}

// Path returns the settings file location.
func (m *Manager) Path() string {
	return m.path
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	if err != nil {
		return Settings{}, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", m.path, err)
	}
	migrateLegacy(raw)

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(rawJSON, &s); err != nil {
		return Settings{}, fmt.Errorf("decode %s: %w", m.path, err)
	}

	backfill(&s)
	return s, nil
}

// migrateLegacy rewrites keys from older settings files in place.
func migrateLegacy(raw map[string]interface{}) {
	// metadata.tmdbApiKey became metadata.apiKey
	if metaRaw, ok := raw["metadata"].(map[string]interface{}); ok {
		if legacy, has := metaRaw["tmdbApiKey"]; has {
			if _, hasNew := metaRaw["apiKey"]; !hasNew {
				metaRaw["apiKey"] = legacy
			}
			delete(metaRaw, "tmdbApiKey")
		}
	}

	// Scrapers without an explicit enabled flag predate the toggle and were always on.
	if list, ok := raw["torrentScrapers"].([]interface{}); ok {
		for _, entry := range list {
			if obj, ok := entry.(map[string]interface{}); ok {
				if _, has := obj["enabled"]; !has {
					obj["enabled"] = true
				}
			}
		}
	}
}

// backfill fills zero values for settings introduced after the file was written.
func backfill(s *Settings) {
	defaults := DefaultSettings()

	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}

	if s.TorrentScrapers == nil {
		s.TorrentScrapers = defaultScrapers()
	}
	for i := range s.TorrentScrapers {
		sc := &s.TorrentScrapers[i]
		sc.Type = strings.ToLower(strings.TrimSpace(sc.Type))
		if strings.TrimSpace(sc.Name) == "" {
			sc.Name = sc.Type
		}
		if sc.TimeoutSeconds <= 0 {
			sc.TimeoutSeconds = defaultScraperTimeoutSeconds
		}
	}

	if strings.TrimSpace(s.Metadata.BaseURL) == "" {
		s.Metadata.BaseURL = defaults.Metadata.BaseURL
	}
	if strings.TrimSpace(s.Metadata.Language) == "" {
		s.Metadata.Language = defaults.Metadata.Language
	}
	if s.Metadata.TimeoutSeconds <= 0 {
		s.Metadata.TimeoutSeconds = defaultMetadataTimeoutSeconds
	}

	if strings.TrimSpace(s.Recommendations.BaseURL) == "" {
		s.Recommendations.BaseURL = defaults.Recommendations.BaseURL
	}
	if strings.TrimSpace(s.Recommendations.Model) == "" {
		s.Recommendations.Model = defaults.Recommendations.Model
	}

	if strings.TrimSpace(s.Playback.EmbedBaseURL) == "" {
		s.Playback.EmbedBaseURL = defaults.Playback.EmbedBaseURL
	}

	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = defaults.Log.File
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}
}

// ApplyEnv overrides secrets and endpoints from the environment so they can
// live in a .env file instead of settings.json.
func (s *Settings) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("VIBEWATCH_TMDB_API_KEY")); v != "" {
		s.Metadata.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("VIBEWATCH_TMDB_BASE_URL")); v != "" {
		s.Metadata.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("VIBEWATCH_LLM_API_KEY")); v != "" {
		s.Recommendations.APIKey = v
		s.Recommendations.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("VIBEWATCH_PROXY_URL")); v != "" {
		s.Network.ProxyURL = v
	}
	if v := strings.TrimSpace(os.Getenv("VIBEWATCH_DB_PATH")); v != "" {
		s.Database.Path = v
	}
}

// Save writes settings atomically via a temp file and rename.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := m.fs.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = m.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(tmp)
		return err
	}
	return m.fs.Rename(tmp, m.path)
}
