package scraper

import (
	"sort"

	"vibewatch/models"
)

// SortBySeeds orders results by seed count, highest first. The sort is
// stable so equal seed counts keep scraper registration order and each
// scraper's own ordering. Quality does not participate.
func SortBySeeds(results []models.TorrentResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return seedsOf(results[i]) > seedsOf(results[j])
	})
}

func seedsOf(res models.TorrentResult) int {
	if res.Seeds < 0 {
		return 0
	}
	return res.Seeds
}
