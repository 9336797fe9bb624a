// Package refine turns top-ranked sections into bounded-length passages.
package refine

import (
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Config controls passage selection and length.
type Config struct {
	TopK    int // Number of ranked sections that get a passage.
	WordCap int // Maximum words per passage.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopK:    5,
		WordCap: 200,
	}
}

// Refine emits one passage for each of the first TopK sections in ranked
// order. Sections beyond TopK get no passage.
func Refine(ranked []doctree.ScoredSection, cfg Config) []doctree.Passage {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.WordCap <= 0 {
		cfg.WordCap = 200
	}

	n := min(cfg.TopK, len(ranked))
	passages := make([]doctree.Passage, 0, n)
	for _, sec := range ranked[:n] {
		text := Truncate(sec.BodyText, cfg.WordCap)
		if text == "" {
			text = Truncate(sec.Title, cfg.WordCap)
		}
		passages = append(passages, doctree.Passage{
			DocumentID:    sec.DocumentID,
			Page:          sec.StartPage,
			RefinedText:   text,
			SourceSection: sec.Title,
		})
	}
	return passages
}

// Truncate collapses whitespace and keeps at most wordCap whole words. When a
// sentence ends in the second half of the kept words, the text is cut there.
func Truncate(text string, wordCap int) string {
	words := textnorm.Words(text)
	if len(words) <= wordCap {
		return strings.Join(words, " ")
	}
	words = words[:wordCap]
	for i := len(words) - 1; i >= wordCap/2; i-- {
		if endsSentence(words[i]) {
			return strings.Join(words[:i+1], " ")
		}
	}
	return strings.Join(words, " ")
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]`)
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

