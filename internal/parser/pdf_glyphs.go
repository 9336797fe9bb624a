package parser

import (
	"context"
	"fmt"
	"math"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// Glyph grouping tolerances, in points.
const (
	sizeTolerance     = 0.1
	baselineTolerance = 1.0
	spaceGapRatio     = 0.3
)

var boldMarkers = []string{"bold", "black", "heavy", "semibold"}

// GlyphExtractor reads positioned glyphs with ledongthuc/pdf and groups
// runs of glyphs sharing font, size and baseline into spans.
type GlyphExtractor struct{}

func (g *GlyphExtractor) Extract(ctx context.Context, path string) (doc *doctree.SpanDocument, err error) {
	// The library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	doc = newDocument(path)
	doc.MetadataTitle = reader.Trailer().Key("Info").Key("Title").Text()
	numPages := reader.NumPage()
	doc.PageCount = numPages
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		doc.Spans = append(doc.Spans, groupGlyphs(page.Content().Text, i)...)
	}
	return doc, nil
}

// groupGlyphs joins consecutive glyphs on one baseline into spans. A
// horizontal gap wider than spaceGapRatio×size becomes a space.
func groupGlyphs(glyphs []pdflib.Text, page int) []doctree.Span {
	var spans []doctree.Span
	var cur *doctree.Span
	var buf strings.Builder
	var lastEnd, baseline float64

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(buf.String())
		if cur.Text != "" {
			spans = append(spans, *cur)
		}
		cur = nil
		buf.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		same := cur != nil &&
			g.Font == cur.Font &&
			math.Abs(g.FontSize-cur.FontSize) <= sizeTolerance &&
			math.Abs(g.Y-baseline) <= baselineTolerance
		if !same {
			flush()
			cur = &doctree.Span{
				Page:     page,
				FontSize: g.FontSize,
				Font:     g.Font,
				IsBold:   isBoldFont(g.Font),
				BBox:     doctree.BBox{X0: g.X, Y0: g.Y, X1: g.X + g.W, Y1: g.Y + g.FontSize},
			}
			baseline = g.Y
		} else if g.X-lastEnd > spaceGapRatio*g.FontSize {
			buf.WriteByte(' ')
		}
		buf.WriteString(g.S)
		lastEnd = g.X + g.W
		cur.BBox.X0 = math.Min(cur.BBox.X0, g.X)
		cur.BBox.X1 = math.Max(cur.BBox.X1, lastEnd)
	}
	flush()
	return spans
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	for _, m := range boldMarkers {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}
