// Package segment partitions document text into titled sections.
package segment

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// minHeaderChars filters out stray glyphs and page numbers.
const minHeaderChars = 3

var enumerationRe = regexp.MustCompile(`^\d+\.\s+\S`)

var connectors = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "for": true, "to": true, "with": true, "by": true,
	"at": true, "from": true, "vs": true, "into": true, "&": true,
}

// rule is one independent header pattern. Rules are OR-combined.
type rule struct {
	name  string
	match func(line string) bool
}

// Segmenter holds read-only rules and can be shared across documents.
type Segmenter struct {
	h     config.Heuristics
	rules []rule
}

func New(h config.Heuristics) *Segmenter {
	s := &Segmenter{h: h}
	s.rules = []rule{
		{name: "upper_case", match: s.isUpperCase},
		{name: "enumeration", match: enumerationRe.MatchString},
		{name: "title_case", match: s.isTitleCase},
		{name: "colon", match: s.endsWithColon},
	}
	return s
}

// IsHeader reports whether a cleaned line opens a new section.
func (s *Segmenter) IsHeader(line string) bool {
	n := len([]rune(line))
	if n < minHeaderChars || (s.h.MaxHeaderChars > 0 && n > s.h.MaxHeaderChars) {
		return false
	}
	for _, r := range s.rules {
		if r.match(line) {
			return true
		}
	}
	return false
}

func (s *Segmenter) isUpperCase(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= s.h.UpperMinLetters
}

func (s *Segmenter) isTitleCase(line string) bool {
	if strings.HasSuffix(line, ".") {
		return false
	}
	words := strings.Fields(line)
	if len(words) < s.h.TitleCaseMinWords || (s.h.TitleCaseMaxWords > 0 && len(words) > s.h.TitleCaseMaxWords) {
		return false
	}
	capitalized := 0
	for i, w := range words {
		first, ok := firstLetter(w)
		switch {
		case !ok:
			continue
		case unicode.IsUpper(first):
			capitalized++
		case i > 0 && connectors[strings.ToLower(strings.Trim(w, ",;"))]:
			continue
		default:
			return false
		}
	}
	return capitalized > 0
}

func (s *Segmenter) endsWithColon(line string) bool {
	if !strings.HasSuffix(line, ":") {
		return false
	}
	if s.h.ColonMaxWords > 0 && len(strings.Fields(line)) > s.h.ColonMaxWords {
		return false
	}
	first, ok := firstLetter(line)
	return ok && unicode.IsUpper(first)
}

func firstLetter(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return r, true
		}
	}
	return 0, false
}

type line struct {
	text string
	page int
}

func lines(doc *doctree.SpanDocument) []line {
	out := make([]line, 0, len(doc.Spans))
	for _, sp := range doc.Spans {
		if t := textnorm.Clean(sp.Text); t != "" {
			out = append(out, line{text: t, page: sp.Page})
		}
	}
	return out
}

// boundary marks a header at lines[start:bodyStart].
type boundary struct {
	start     int
	bodyStart int
	title     string
}

// Segment splits one document using the header rules. fallbackTitle names
// the leading text before the first header, or the whole document when no
// line matches. A document without text yields no sections.
func (s *Segmenter) Segment(doc *doctree.SpanDocument, docIndex int, fallbackTitle string) []doctree.Section {
	ls := lines(doc)
	var bounds []boundary
	for i, l := range ls {
		if s.IsHeader(l.text) {
			bounds = append(bounds, boundary{start: i, bodyStart: i + 1, title: l.text})
		}
	}
	return assemble(doc, docIndex, ls, bounds, fallbackTitle)
}

// FromOutline reuses outline entries as section boundaries. Entries that
// cannot be located in the span stream are skipped.
func FromOutline(doc *doctree.SpanDocument, docIndex int, entries []doctree.OutlineEntry, fallbackTitle string) []doctree.Section {
	ls := lines(doc)
	var bounds []boundary
	cursor := 0
	for _, e := range entries {
		want := textnorm.Key(e.Text)
		for i := cursor; i < len(ls); i++ {
			if ls[i].page != e.Page {
				continue
			}
			if j, ok := matchHeading(ls, i, want); ok {
				bounds = append(bounds, boundary{start: i, bodyStart: j, title: e.Text})
				cursor = j
				break
			}
		}
	}
	return assemble(doc, docIndex, ls, bounds, fallbackTitle)
}

// matchHeading reports whether the lines starting at i spell out want in
// whole words, and returns the index of the first line after the heading.
// A merged heading may cover several consecutive lines on one page.
func matchHeading(ls []line, i int, want string) (int, bool) {
	acc := textnorm.Key(ls[i].text)
	if acc == "" || (acc != want && !strings.HasPrefix(want, acc+" ")) {
		return 0, false
	}
	j := i + 1
	for acc != want && j < len(ls) && ls[j].page == ls[i].page {
		next := acc + " " + textnorm.Key(ls[j].text)
		if next != want && !strings.HasPrefix(want, next+" ") {
			break
		}
		acc = next
		j++
	}
	return j, acc == want
}

func assemble(doc *doctree.SpanDocument, docIndex int, ls []line, bounds []boundary, fallbackTitle string) []doctree.Section {
	sections := []doctree.Section{}
	if len(ls) == 0 {
		return sections
	}
	fallbackTitle = strings.TrimSpace(fallbackTitle)
	if fallbackTitle == "" {
		base := filepath.Base(doc.ID)
		fallbackTitle = strings.TrimSuffix(base, filepath.Ext(base))
	}

	build := func(title string, titlePage int, body []line) doctree.Section {
		sec := doctree.Section{
			DocumentID: doc.ID,
			DocIndex:   docIndex,
			Title:      title,
			StartPage:  titlePage,
			EndPage:    titlePage,
		}
		texts := make([]string, 0, len(body))
		for _, l := range body {
			texts = append(texts, l.text)
			if l.page > sec.EndPage {
				sec.EndPage = l.page
			}
		}
		sec.BodyText = strings.Join(texts, "\n")
		return sec
	}

	if len(bounds) == 0 {
		return append(sections, build(fallbackTitle, ls[0].page, ls))
	}
	if lead := ls[:bounds[0].start]; len(lead) > 0 {
		sections = append(sections, build(fallbackTitle, lead[0].page, lead))
	}
	for k, b := range bounds {
		end := len(ls)
		if k+1 < len(bounds) {
			end = bounds[k+1].start
		}
		sections = append(sections, build(b.title, ls[b.start].page, ls[b.bodyStart:end]))
	}
	return sections
}
