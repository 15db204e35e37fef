package scraper

import (
	"strings"

	"vibewatch/models"
)

// Quality tiers, highest first. Order matters: the first tier whose
// markers appear in a release name wins.
var qualityTiers = []struct {
	markers []string
	info    models.QualityInfo
}{
	{markers: []string{"2160p", "4k"}, info: models.QualityInfo{Score: 5, Label: "4K", ColorHint: "#8b5cf6"}},
	{markers: []string{"1080p"}, info: models.QualityInfo{Score: 4, Label: "1080p", ColorHint: "#22c55e"}},
	{markers: []string{"720p"}, info: models.QualityInfo{Score: 3, Label: "720p", ColorHint: "#3b82f6"}},
}

var standardDefinition = models.QualityInfo{Score: 0, Label: "SD", ColorHint: "#9ca3af"}

// Classify derives a display quality badge from a free-text release name.
// It is a heuristic; names without a resolution marker fall through to SD.
func Classify(name string) models.QualityInfo {
	lowered := strings.ToLower(name)
	for _, tier := range qualityTiers {
		for _, marker := range tier.markers {
			if strings.Contains(lowered, marker) {
				return tier.info
			}
		}
	}
	return standardDefinition
}

// Rows attaches quality badges to results without changing their order.
func Rows(results []models.TorrentResult) []models.TorrentRow {
	rows := make([]models.TorrentRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, models.TorrentRow{TorrentResult: res, Quality: Classify(res.Name)})
	}
	return rows
}
