// Package similarity scores how closely two media titles match.
package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Similarity returns a score between 0.0 (completely different) and 1.0
// (identical) for two titles, based on Levenshtein distance over normalized
// forms. Accented and non-Latin titles are transliterated first, so
// "Amélie" and "Amelie" compare equal.
//
// A title that is a word-aligned suffix of the other and covers at least 60%
// of it ("Disney's Frozen" vs "Frozen") scores at least 0.9.
func Similarity(s1, s2 string) float64 {
	s1 = normalize(s1)
	s2 = normalize(s2)

	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	if score := suffixContainmentScore(s1, s2); score > 0 {
		return score
	}

	r1, r2 := []rune(s1), []rune(s2)
	distance := levenshteinDistance(r1, r2)
	return 1.0 - float64(distance)/float64(max(len(r1), len(r2)))
}

// BestMatch returns the index and score of the candidate most similar to
// title. Ties keep the earliest candidate. With no candidates it returns -1.
func BestMatch(title string, candidates []string) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if score := Similarity(title, c); best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

func suffixContainmentScore(s1, s2 string) float64 {
	longer, shorter := s1, s2
	if len(s1) < len(s2) {
		longer, shorter = s2, s1
	}
	if !strings.HasSuffix(longer, shorter) {
		return 0
	}
	prefixLen := len(longer) - len(shorter)
	if prefixLen > 0 && longer[prefixLen-1] != ' ' {
		return 0
	}
	ratio := float64(len(shorter)) / float64(len(longer))
	if ratio < 0.6 {
		return 0
	}
	// 60% containment -> 0.96, 100% -> 1.0
	return 0.90 + (ratio * 0.10)
}

// normalize transliterates to ASCII, lowercases, turns "&" into "and", maps
// separators (. - _) to spaces, drops other punctuation and collapses runs of
// whitespace.
func normalize(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// levenshteinDistance uses two rolling rows instead of the full matrix.
func levenshteinDistance(r1, r2 []rune) int {
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
