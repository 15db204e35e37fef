// Package recommend turns a free-text "vibe" into a list of real titles by
// asking a text generator for suggestions and resolving each against the
// metadata catalogue.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"vibewatch/models"
	"vibewatch/utils/similarity"
)

const (
	// MinMatchScore is the lowest title similarity accepted as a match.
	MinMatchScore = 0.6
	// MaxSuggestions bounds how many generated lines are resolved.
	MaxSuggestions = 10

	resolveWorkers = 4

	systemPrompt = "You recommend movies and TV series. Answer with titles only."
)

var (
	ErrVibeRequired = errors.New("vibe is required")
	ErrDisabled     = errors.New("recommendations are disabled")
)

type titleSearcher interface {
	Search(ctx context.Context, query, mediaType string) ([]models.Title, error)
}

// Service resolves generated suggestions to catalogue titles.
type Service struct {
	generator TextGenerator
	metadata  titleSearcher
}

func NewService(generator TextGenerator, metadata titleSearcher) *Service {
	return &Service{generator: generator, metadata: metadata}
}

// Enabled reports whether both collaborators are wired.
func (s *Service) Enabled() bool {
	return s != nil && s.generator != nil && s.metadata != nil
}

// Recommend asks for titles matching vibe and returns the ones that resolve,
// in the order they were suggested.
func (s *Service) Recommend(ctx context.Context, vibe string) ([]models.Recommendation, error) {
	vibe = strings.Join(strings.Fields(vibe), " ")
	if vibe == "" {
		return nil, ErrVibeRequired
	}
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	text, err := s.generator.Generate(ctx, buildPrompt(vibe))
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}

	suggestions := parseSuggestions(text)
	log.Printf("[recommend] vibe %q produced %d suggestions", vibe, len(suggestions))

	mapper := iter.Mapper[suggestion, *models.Recommendation]{MaxGoroutines: resolveWorkers}
	resolved := mapper.Map(suggestions, func(sg *suggestion) *models.Recommendation {
		return s.resolve(ctx, *sg)
	})

	out := make([]models.Recommendation, 0, len(resolved))
	seen := make(map[string]struct{}, len(resolved))
	for _, rec := range resolved {
		if rec == nil {
			continue
		}
		key := rec.Title.MediaType + ":" + rec.Title.ID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, *rec)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, sg suggestion) *models.Recommendation {
	candidates, err := s.metadata.Search(ctx, sg.title, "")
	if err != nil {
		log.Printf("[recommend] lookup %q failed: %v", sg.title, err)
		return nil
	}

	best := -1
	bestScore := 0.0
	bestYear := false
	for i, c := range candidates {
		score := similarity.Similarity(sg.title, c.Name)
		if c.OriginalName != "" {
			score = max(score, similarity.Similarity(sg.title, c.OriginalName))
		}
		if score < MinMatchScore {
			continue
		}
		yearMatch := sg.year > 0 && c.Year == sg.year
		if best < 0 || score > bestScore || (score == bestScore && yearMatch && !bestYear) {
			best, bestScore, bestYear = i, score, yearMatch
		}
	}
	if best < 0 {
		log.Printf("[recommend] no catalogue match for %q", sg.title)
		return nil
	}
	return &models.Recommendation{
		Suggested: sg.title,
		Score:     bestScore,
		Title:     candidates[best],
	}
}

func buildPrompt(vibe string) string {
	return fmt.Sprintf(
		"Suggest up to %d movies or TV series that match this vibe: %q.\n"+
			"Reply with one title per line followed by its release year in parentheses, and nothing else.",
		MaxSuggestions, vibe,
	)
}

type suggestion struct {
	title string
	year  int
}

var (
	listMarkerPattern   = regexp.MustCompile(`^\s*(?:\d{1,2}[.)]|[-*•])\s*`)
	trailingYearPattern = regexp.MustCompile(`\s*[(\[]\s*((?:19|20)\d{2})(?:\s*[-–]\s*(?:\d{4})?)?\s*[)\]]\s*$|\s+[-–]\s+((?:19|20)\d{2})\s*$`)
)

// parseSuggestions extracts one title per line, dropping list numbering,
// bullets, emphasis, quotes and a trailing release year. Duplicates and
// empty lines are skipped.
func parseSuggestions(text string) []suggestion {
	out := make([]suggestion, 0, MaxSuggestions)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = listMarkerPattern.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.Trim(line, " \t*\"'`“”")

		year := 0
		if m := trailingYearPattern.FindStringSubmatch(line); m != nil {
			raw := m[1]
			if raw == "" {
				raw = m[2]
			}
			year, _ = strconv.Atoi(raw)
			line = strings.TrimSpace(line[:len(line)-len(m[0])])
			line = strings.Trim(line, " \t*\"'`“”")
		}
		if line == "" {
			continue
		}

		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, suggestion{title: line, year: year})
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
