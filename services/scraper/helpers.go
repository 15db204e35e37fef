package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	bytesPerMB = 1024 * 1024
	mbPerGB    = 1024
)

// formatSize renders a byte count with 1024-based units, switching from MB
// to GB at 1024 MB, always with two decimals.
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	mb := float64(bytes) / bytesPerMB
	if mb >= mbPerGB {
		return fmt.Sprintf("%.2f GB", mb/mbPerGB)
	}
	return fmt.Sprintf("%.2f MB", mb)
}

// formatSizeString parses a decimal byte count and formats it; garbage
// renders as zero.
func formatSizeString(raw string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return formatSize(0)
	}
	return formatSize(n)
}

// buildMagnetFromHash creates a basic magnet link from an info hash.
func buildMagnetFromHash(hash, title string) string {
	return fmt.Sprintf("magnet:?xt=urn:btih:%s&dn=%s", hash, url.QueryEscape(title))
}

// parseCount parses a seeder/leecher count; anything unparseable or
// negative is zero.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// flexInt decodes JSON numbers and numeric strings alike; upstream APIs are
// inconsistent about which they send. Unparseable values decode to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	*f = 0
	return nil
}

// flexString decodes JSON strings and numbers into their textual form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		*f = flexString(unquoted)
		return nil
	}
	*f = flexString(raw)
	return nil
}
