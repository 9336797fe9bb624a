// Package outline turns classified fragments into an ordered, leveled outline.
package outline

import (
	"math"
	"sort"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/heading"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Builder is stateless; Build is a pure function of its input.
type Builder struct {
	minLength int
	gapRatio  float64
}

func New(h config.Heuristics) *Builder {
	return &Builder{minLength: h.MinHeadingLength, gapRatio: h.MergeGapRatio}
}

type candidate struct {
	entry    doctree.OutlineEntry
	numbered bool
	lastBox  doctree.BBox
	lastSize float64
}

// Build merges, deduplicates and length-filters a document's fragments.
// Levels are emitted exactly as classified.
func (b *Builder) Build(frags []doctree.Fragment) []doctree.OutlineEntry {
	cands := b.merge(frags)
	cands = dedup(cands)
	cands = b.filterLength(cands)
	return entries(cands)
}

// BuildFromBookmarks cleans an embedded outline with the same dedup and
// length rules used for classified fragments.
func (b *Builder) BuildFromBookmarks(bookmarks []doctree.OutlineEntry) []doctree.OutlineEntry {
	cands := make([]candidate, 0, len(bookmarks))
	for _, bm := range bookmarks {
		text := textnorm.Clean(bm.Text)
		if text == "" || !bm.Level.IsHeading() {
			continue
		}
		_, numbered := heading.MatchNumbered(text)
		cands = append(cands, candidate{
			entry:    doctree.OutlineEntry{Level: bm.Level, Text: text, Page: bm.Page},
			numbered: numbered,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].entry.Page < cands[j].entry.Page })
	cands = dedup(cands)
	cands = b.filterLength(cands)
	return entries(cands)
}

func (b *Builder) merge(frags []doctree.Fragment) []candidate {
	var out []candidate
	var cur *candidate
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}

	for _, f := range frags {
		if !f.Level.IsHeading() {
			flush()
			continue
		}
		numbered := f.Signals.Has(doctree.SignalNumbered)
		if cur != nil && !numbered && cur.entry.Page == f.Page && cur.entry.Level == f.Level && b.adjacent(cur, f) {
			cur.entry.Text += " " + f.Text
			cur.lastBox = f.BBox
			cur.lastSize = f.FontSize
			continue
		}
		flush()
		cur = &candidate{
			entry:    doctree.OutlineEntry{Level: f.Level, Text: f.Text, Page: f.Page},
			numbered: numbered,
			lastBox:  f.BBox,
			lastSize: f.FontSize,
		}
	}
	flush()
	return out
}

// adjacent reports whether f continues the heading in cur. Fragments without
// position information are treated as adjacent.
func (b *Builder) adjacent(cur *candidate, f doctree.Fragment) bool {
	if b.gapRatio <= 0 || cur.lastBox.IsZero() || f.BBox.IsZero() {
		return true
	}
	size := math.Max(cur.lastSize, f.FontSize)
	return verticalGap(cur.lastBox, f.BBox) <= b.gapRatio*size
}

func verticalGap(a, b doctree.BBox) float64 {
	lo := math.Max(math.Min(a.Y0, a.Y1), math.Min(b.Y0, b.Y1))
	hi := math.Min(math.Max(a.Y0, a.Y1), math.Max(b.Y0, b.Y1))
	if lo <= hi {
		return 0 // overlapping lines
	}
	return lo - hi
}

// dedup drops entries whose normalized text already appeared on the same page.
// Repeats on other pages are kept.
func dedup(cands []candidate) []candidate {
	seen := make(map[int]map[string]bool)
	out := cands[:0:0]
	for _, c := range cands {
		key := textnorm.Key(c.entry.Text)
		page := seen[c.entry.Page]
		if page == nil {
			page = make(map[string]bool)
			seen[c.entry.Page] = page
		}
		if page[key] {
			continue
		}
		page[key] = true
		out = append(out, c)
	}
	return out
}

func (b *Builder) filterLength(cands []candidate) []candidate {
	out := cands[:0:0]
	for _, c := range cands {
		text := textnorm.Clean(c.entry.Text)
		if text == "" {
			continue
		}
		if len([]rune(text)) < b.minLength && !c.numbered {
			continue
		}
		c.entry.Text = text
		out = append(out, c)
	}
	return out
}

func entries(cands []candidate) []doctree.OutlineEntry {
	out := make([]doctree.OutlineEntry, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.entry)
	}
	return out
}

// DropTitle removes the first entry on page that reproduces title, so the
// resolved title is not repeated as the opening heading.
func DropTitle(entries []doctree.OutlineEntry, title string, page int) []doctree.OutlineEntry {
	key := textnorm.Key(title)
	if key == "" || page <= 0 {
		return entries
	}
	for i, e := range entries {
		if e.Page == page && textnorm.Key(e.Text) == key {
			out := make([]doctree.OutlineEntry, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			return append(out, entries[i+1:]...)
		}
	}
	return entries
}
