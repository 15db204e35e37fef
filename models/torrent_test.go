package models

import "testing"

func TestValidLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want bool
	}{
		{"magnet with hash", "magnet:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567&dn=Movie", true},
		{"magnet uppercase scheme", "MAGNET:?xt=urn:btih:0123456789abcdef0123456789abcdef01234567", true},
		{"magnet without hash", "magnet:?dn=Movie", false},
		{"https torrent", "https://yts.mx/torrent/download/ABC", true},
		{"http torrent", "http://example.org/file.torrent", true},
		{"ftp rejected", "ftp://example.org/file.torrent", false},
		{"relative rejected", "/download/1.torrent", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidLink(tt.link); got != tt.want {
				t.Fatalf("ValidLink(%q) = %v, want %v", tt.link, got, tt.want)
			}
		})
	}
}

func TestTorrentResultIsMagnet(t *testing.T) {
	if !(TorrentResult{URL: "magnet:?xt=urn:btih:abc"}).IsMagnet() {
		t.Fatal("expected magnet link to be detected")
	}
	if (TorrentResult{URL: "https://example.org/a.torrent"}).IsMagnet() {
		t.Fatal("expected torrent file link not to be a magnet")
	}
}
