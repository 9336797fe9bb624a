// Package rank scores sections against a persona profile and orders them.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/persona"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Scorer holds read-only scoring parameters.
type Scorer struct {
	titleMultiplier float64
	minBodyWords    int
	wordsPerPoint   float64
	maxBonus        float64
}

func New(h config.Heuristics) *Scorer {
	return &Scorer{
		titleMultiplier: h.TitleMultiplier,
		minBodyWords:    h.MinBodyWords,
		wordsPerPoint:   h.WordsPerBonusPoint,
		maxBonus:        h.MaxLengthBonus,
	}
}

// Score computes a section's relevance. A section without keyword hits
// scores exactly 0.
func (s *Scorer) Score(sec doctree.Section, p *persona.Profile) float64 {
	title := textnorm.Key(sec.Title)
	body := textnorm.Key(sec.BodyText)

	score := 0.0
	for _, k := range p.Keywords() {
		titleHits := strings.Count(title, k.Term)
		bodyHits := strings.Count(body, k.Term)
		score += k.Weight * (float64(titleHits)*s.titleMultiplier + float64(bodyHits))
	}
	if score == 0 {
		return 0
	}
	return score + s.lengthBonus(len(strings.Fields(body)))
}

func (s *Scorer) lengthBonus(words int) float64 {
	if s.wordsPerPoint <= 0 || s.maxBonus <= 0 || words <= s.minBodyWords {
		return 0
	}
	return math.Min(float64(words-s.minBodyWords)/s.wordsPerPoint, s.maxBonus)
}

// Rank scores every section and returns them in a total order: score
// descending, then earlier page, then earlier document, then input order.
// Ranks are 1..N with no gaps.
func (s *Scorer) Rank(sections []doctree.Section, p *persona.Profile) []doctree.ScoredSection {
	out := make([]doctree.ScoredSection, 0, len(sections))
	for _, sec := range sections {
		out = append(out, doctree.ScoredSection{Section: sec, Score: s.Score(sec, p)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.StartPage != b.StartPage {
			return a.StartPage < b.StartPage
		}
		return a.DocIndex < b.DocIndex
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
