package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibewatch/config"
	"vibewatch/services/scraper"
)

type fakeMetadataCache struct {
	size    int
	cleared bool
}

func (f *fakeMetadataCache) ClearCache()    { f.cleared = true; f.size = 0 }
func (f *fakeMetadataCache) CacheSize() int { return f.size }

func testConfigManager(t *testing.T) *config.Manager {
	t.Helper()
	return config.NewManagerWithFs(afero.NewMemMapFs(), "cache/settings.json")
}

func TestSettingsHandler_GetCreatesDefaults(t *testing.T) {
	handler := NewSettingsHandler(testConfigManager(t))

	rec := httptest.NewRecorder()
	handler.GetSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload config.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 7777, payload.Server.Port)
	assert.Len(t, payload.TorrentScrapers, 2)
}

func TestSettingsHandler_PutReloadsScrapers(t *testing.T) {
	mgr := testConfigManager(t)
	torrents := NewTorrentsHandler(scraper.NewRegistry(), nil, nil)
	handler := NewSettingsHandler(mgr)
	handler.SetTorrentsHandler(torrents)

	s := config.DefaultSettings()
	s.TorrentScrapers = []config.TorrentScraperConfig{
		{Name: "Anime", Type: "nyaa", URL: "https://nyaa.si", Enabled: true},
		{Name: "Off", Type: "yts", URL: "https://yts.mx", Enabled: false},
	}
	body, _ := json.Marshal(s)

	rec := httptest.NewRecorder()
	handler.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := mgr.Load()
	require.NoError(t, err)
	assert.Len(t, saved.TorrentScrapers, 2)
	assert.Equal(t, 10, saved.TorrentScrapers[0].TimeoutSeconds, "zero timeouts are backfilled")

	rec = httptest.NewRecorder()
	torrents.Sources(rec, httptest.NewRequest(http.MethodGet, "/api/torrents/sources", nil))
	var sources []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sources))
	assert.Equal(t, []string{"Anime"}, sources)
}

func TestSettingsHandler_PutRejectsMalformed(t *testing.T) {
	handler := NewSettingsHandler(testConfigManager(t))

	rec := httptest.NewRecorder()
	handler.PutSettings(rec, httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsHandler_ClearMetadataCache(t *testing.T) {
	handler := NewSettingsHandler(testConfigManager(t))

	rec := httptest.NewRecorder()
	handler.ClearMetadataCache(rec, httptest.NewRequest(http.MethodPost, "/api/settings/cache/clear", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	cache := &fakeMetadataCache{size: 3}
	handler.SetMetadataCache(cache)
	rec = httptest.NewRecorder()
	handler.ClearMetadataCache(rec, httptest.NewRequest(http.MethodPost, "/api/settings/cache/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cache.cleared)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, float64(3), payload["cleared"])
}
