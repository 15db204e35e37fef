package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ytsTwoTorrentsBody = `{
  "status": "ok",
  "data": {
    "movie_count": 1,
    "movies": [{
      "id": 3175,
      "title": "Inception",
      "year": 2010,
      "torrents": [
        {"url": "https://yts.mx/torrent/download/AAA", "hash": "AAA", "quality": "720p", "size": "1.03 GB", "seeds": 120, "peers": 8},
        {"url": "https://yts.mx/torrent/download/BBB", "hash": "BBB", "quality": "1080p", "size": "1.85 GB", "seeds": "340", "peers": "21"}
      ]
    }]
  }
}`

func TestYTSScraperSearch(t *testing.T) {
	var gotPath, gotQuery, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query_term")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ytsTwoTorrentsBody))
	}))
	defer server.Close()

	s := NewYTSScraper(server.URL, "", server.Client())
	results, err := s.Search(context.Background(), "inception")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if gotPath != "/api/v2/list_movies.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "inception" || gotLimit != "50" {
		t.Fatalf("unexpected query params query_term=%q limit=%q", gotQuery, gotLimit)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	first := results[0]
	if first.ID != "3175-AAA" {
		t.Fatalf("expected composite id, got %q", first.ID)
	}
	if first.Name != "Inception [720p]" {
		t.Fatalf("unexpected name %q", first.Name)
	}
	if first.URL != "https://yts.mx/torrent/download/AAA" {
		t.Fatalf("url should be taken verbatim, got %q", first.URL)
	}
	if first.Size != "1.03 GB" || first.Seeds != 120 || first.Peers != 8 {
		t.Fatalf("unexpected size/seeds/peers: %+v", first)
	}
	if first.Source != "YTS" {
		t.Fatalf("expected default source YTS, got %q", first.Source)
	}
	if results[1].Seeds != 340 || results[1].Peers != 21 {
		t.Fatalf("string counts should parse, got %+v", results[1])
	}
	if results[0].ID == results[1].ID {
		t.Fatalf("ids must be distinct within one scraper")
	}
}

func TestYTSScraperNullMovies(t *testing.T) {
	for name, body := range map[string]string{
		"null":    `{"status":"ok","data":{"movie_count":0,"movies":null}}`,
		"missing": `{"status":"ok","data":{"movie_count":0}}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			results, err := NewYTSScraper(server.URL, "YTS", server.Client()).Search(context.Background(), "nothing")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(results) != 0 {
				t.Fatalf("expected zero results, got %d", len(results))
			}
		})
	}
}

func TestYTSScraperMalformed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing data", http.StatusOK, `{"status":"ok"}`},
		{"not json", http.StatusOK, `<html>maintenance</html>`},
		{"server error", http.StatusBadGateway, `bad gateway`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			if _, err := NewYTSScraper(server.URL, "", server.Client()).Search(context.Background(), "x"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestYTSScraperDropsUnusableLinks(t *testing.T) {
	body := `{"data":{"movies":[{"id":1,"title":"Film","torrents":[
	  {"url":"","hash":"A","quality":"720p"},
	  {"url":"ftp://example.org/a","hash":"B","quality":"1080p"},
	  {"url":"https://example.org/c.torrent","hash":"C","quality":"2160p","seeds":-4}
	]}]}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	results, err := NewYTSScraper(server.URL, "", server.Client()).Search(context.Background(), "film")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1-C" {
		t.Fatalf("expected only the https torrent, got %+v", results)
	}
	if results[0].Seeds != 0 {
		t.Fatalf("negative seeds should clamp to 0, got %d", results[0].Seeds)
	}
}

func TestYTSScraperEmptyQuery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	results, err := NewYTSScraper(server.URL, "", server.Client()).Search(context.Background(), "   ")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty result, got %v %v", results, err)
	}
	if called {
		t.Fatalf("blank query should not hit the network")
	}
}
