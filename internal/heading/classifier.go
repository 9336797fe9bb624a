// Package heading assigns heading levels to individual text fragments.
//
// Classification is an ordered list of rules evaluated in fixed priority;
// the first rule that matches decides the base level. A keyword override
// runs afterwards unless the deciding rule was final.
package heading

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

var numberedRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)(\.?)(?:\s+|$)`)

// MatchNumbered reports whether text starts with hierarchical numbering
// ("1.", "2.1", "3.2.1") and returns the number of numeric groups.
// A single group must carry a trailing dot.
func MatchNumbered(text string) (int, bool) {
	m := numberedRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	groups := strings.Count(m[1], ".") + 1
	if groups == 1 && m[2] == "" {
		return 0, false
	}
	return groups, true
}

// features is what every rule looks at.
type features struct {
	text     string
	words    int
	size     float64
	bold     bool
	prevSize float64 // 0 when there is no preceding fragment
}

type verdict struct {
	level   doctree.Level
	signals doctree.Signals
	final   bool // skip the keyword override
}

// rule returns ok=false to pass the fragment on to the next rule.
type rule struct {
	name  string
	apply func(c *Classifier, f features) (verdict, bool)
}

// Classifier is safe for concurrent use; it holds only read-only configuration.
type Classifier struct {
	h        config.Heuristics
	keywords []string // normalized
	rules    []rule
}

func New(h config.Heuristics) *Classifier {
	c := &Classifier{h: h}
	for _, kw := range h.HeadingKeywords {
		if k := textnorm.Key(kw); k != "" {
			c.keywords = append(c.keywords, k)
		}
	}
	c.rules = []rule{
		{name: "empty", apply: ruleEmpty},
		{name: "numbered", apply: ruleNumbered},
		{name: "too_long", apply: ruleTooLong},
		{name: "font_size", apply: ruleFontSize},
		{name: "relative_jump", apply: ruleRelativeJump},
	}
	return c
}

// Classify labels one span. prevFontSize is the size of the immediately
// preceding fragment on the same page, or 0 when there is none.
func (c *Classifier) Classify(span doctree.Span, prevFontSize float64) doctree.Fragment {
	text := textnorm.Clean(span.Text)
	f := features{
		text:     text,
		words:    len(strings.Fields(text)),
		size:     span.FontSize,
		bold:     span.IsBold,
		prevSize: prevFontSize,
	}

	var v verdict
	for _, r := range c.rules {
		if got, ok := r.apply(c, f); ok {
			v = got
			break
		}
	}
	if !v.final && c.matchKeyword(f) && doctree.LevelH2.Outranks(v.level) {
		v.level = doctree.LevelH2
		v.signals = v.signals.With(doctree.SignalKeyword)
	}

	span.Text = text
	return doctree.Fragment{Span: span, Level: v.level, Signals: v.signals}
}

// ClassifyAll labels a document's spans in order. The preceding font size
// resets at every page boundary.
func (c *Classifier) ClassifyAll(spans []doctree.Span) []doctree.Fragment {
	out := make([]doctree.Fragment, 0, len(spans))
	prevPage := 0
	prevSize := 0.0
	for _, s := range spans {
		if s.Page != prevPage {
			prevSize = 0
			prevPage = s.Page
		}
		frag := c.Classify(s, prevSize)
		if frag.Text == "" {
			continue
		}
		out = append(out, frag)
		prevSize = s.FontSize
	}
	return out
}

func ruleEmpty(_ *Classifier, f features) (verdict, bool) {
	if f.text == "" {
		return verdict{level: doctree.LevelNone, final: true}, true
	}
	return verdict{}, false
}

func ruleTooLong(c *Classifier, f features) (verdict, bool) {
	if c.h.MaxHeadingWords > 0 && f.words > c.h.MaxHeadingWords {
		return verdict{level: doctree.LevelNone, final: true}, true
	}
	return verdict{}, false
}

func ruleNumbered(_ *Classifier, f features) (verdict, bool) {
	groups, ok := MatchNumbered(f.text)
	if !ok {
		return verdict{}, false
	}
	return verdict{
		level:   doctree.LevelFromDepth(groups),
		signals: doctree.Signals(0).With(doctree.SignalNumbered),
		final:   true,
	}, true
}

func ruleFontSize(c *Classifier, f features) (verdict, bool) {
	large := doctree.Signals(0).With(doctree.SignalFontLarge)
	switch {
	case f.size >= c.h.H1Size:
		return verdict{level: doctree.LevelH1, signals: large}, true
	case f.size >= c.h.H2Size:
		return verdict{level: doctree.LevelH2, signals: large}, true
	case f.size >= c.h.H3Size:
		return verdict{level: doctree.LevelH3, signals: large}, true
	case f.bold && f.size >= c.h.BoldMinSize:
		return verdict{level: doctree.LevelH3, signals: doctree.Signals(0).With(doctree.SignalBold)}, true
	}
	return verdict{}, false
}

func ruleRelativeJump(c *Classifier, f features) (verdict, bool) {
	if c.h.RelativeJumpRatio <= 0 || f.prevSize <= 0 {
		return verdict{}, false
	}
	if f.size >= f.prevSize*c.h.RelativeJumpRatio && f.size >= c.h.BoldMinSize {
		return verdict{level: doctree.LevelH3, signals: doctree.Signals(0).With(doctree.SignalPosition)}, true
	}
	return verdict{}, false
}

func (c *Classifier) matchKeyword(f features) bool {
	if c.h.KeywordMaxWords > 0 && f.words > c.h.KeywordMaxWords {
		return false
	}
	key := strings.ToLower(f.text)
	for _, kw := range c.keywords {
		if key == kw {
			return true
		}
		if strings.HasPrefix(key, kw) {
			next := key[len(kw)]
			if next == ' ' || next == ':' {
				return true
			}
		}
	}
	return false
}
