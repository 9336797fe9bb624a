package parser

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	pdflib "github.com/ledongthuc/pdf"
)

func glyphs(font string, size, x, y float64, s string) []pdflib.Text {
	var out []pdflib.Text
	w := size * 0.5
	for _, r := range s {
		if r != ' ' {
			out = append(out, pdflib.Text{Font: font, FontSize: size, X: x, Y: y, W: w, S: string(r)})
		}
		x += w
	}
	return out
}

func TestGroupGlyphs(t *testing.T) {
	var in []pdflib.Text
	in = append(in, glyphs("Helvetica-Bold", 18, 50, 700, "Annual Report")...)
	in = append(in, glyphs("Helvetica", 10, 50, 650, "Body text")...)
	in = append(in, glyphs("Helvetica", 10, 50, 638, "next line")...)

	spans := groupGlyphs(in, 3)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "Annual Report" || !spans[0].IsBold || spans[0].FontSize != 18 {
		t.Errorf("heading span: %+v", spans[0])
	}
	if spans[1].Text != "Body text" || spans[1].IsBold {
		t.Errorf("body span: %+v", spans[1])
	}
	if spans[2].Text != "next line" {
		t.Errorf("expected a new span per baseline, got %+v", spans[2])
	}
	for _, s := range spans {
		if s.Page != 3 {
			t.Errorf("expected page 3, got %d", s.Page)
		}
		if s.BBox.IsZero() || s.BBox.X1 <= s.BBox.X0 {
			t.Errorf("expected a bbox, got %+v", s.BBox)
		}
	}
}

func TestGroupGlyphs_SizeBreak(t *testing.T) {
	var in []pdflib.Text
	in = append(in, glyphs("F1", 12, 0, 100, "ab")...)
	in = append(in, glyphs("F1", 12.05, 12, 100, "cd")...) // within tolerance
	in = append(in, glyphs("F1", 14, 24, 100, "ef")...)

	spans := groupGlyphs(in, 1)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %+v", spans)
	}
	if spans[0].Text != "abcd" || spans[1].Text != "ef" {
		t.Errorf("unexpected grouping: %q %q", spans[0].Text, spans[1].Text)
	}
}

func TestIsBoldFont(t *testing.T) {
	for font, want := range map[string]bool{
		"ABCDEF+Arial-BoldMT": true,
		"Roboto-Black":        true,
		"OpenSans-SemiBold":   true,
		"Times-Roman":         false,
		"":                    false,
	} {
		if got := isBoldFont(font); got != want {
			t.Errorf("isBoldFont(%q) = %v, want %v", font, got, want)
		}
	}
}

const bboxLayout = `<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Quarterly Plan</title></head>
<body>
<doc>
  <page width="595.0" height="842.0">
    <flow><block xMin="50" yMin="60" xMax="300" yMax="80">
      <line xMin="50.0" yMin="60.0" xMax="300.0" yMax="78.0">
        <word xMin="50.0" yMin="60.0" xMax="120.0" yMax="78.0">Quarterly</word>
        <word xMin="125.0" yMin="60.0" xMax="160.0" yMax="78.0">Plan</word>
      </line>
      <line xMin="50.0" yMin="100.0" xMax="300.0" yMax="110.0">
        <word xMin="50.0" yMin="100.0" xMax="80.0" yMax="110.0">body</word>
      </line>
    </block></flow>
  </page>
  <page width="595.0" height="842.0">
    <flow><block><line xMin="1" yMin="1" xMax="2" yMax="13"><word xMin="1" yMin="1" xMax="2" yMax="13">Next</word></line></block></flow>
  </page>
</doc>
</body>
</html>`

func TestParseBBoxLayout(t *testing.T) {
	doc, err := parseBBoxLayout(strings.NewReader(bboxLayout))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MetadataTitle != "Quarterly Plan" {
		t.Errorf("expected title, got %q", doc.MetadataTitle)
	}
	if doc.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", doc.PageCount)
	}
	if len(doc.Spans) != 3 {
		t.Fatalf("expected 3 spans, got %v", spanTexts(doc))
	}
	first := doc.Spans[0]
	if first.Text != "Quarterly Plan" || first.Page != 1 || first.FontSize != 18 {
		t.Errorf("first span: %+v", first)
	}
	if first.BBox.Y0 != 60 || first.BBox.Y1 != 78 {
		t.Errorf("first bbox: %+v", first.BBox)
	}
	if doc.Spans[2].Page != 2 || doc.Spans[2].FontSize != 12 {
		t.Errorf("page two span: %+v", doc.Spans[2])
	}
}

func writeSamplePDF(t *testing.T) string {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Annual Report 2024", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(50, 80, "Annual Report 2024")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, 120, "Revenue grew in every region.")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, 80, "Second page body.")

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestGlyphExtractor_RealPDF(t *testing.T) {
	doc, err := (&GlyphExtractor{}).Extract(context.Background(), writeSamplePDF(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "report.pdf" || doc.PageCount != 2 {
		t.Errorf("unexpected document header: %+v", doc)
	}
	if doc.MetadataTitle != "Annual Report 2024" {
		t.Errorf("expected metadata title, got %q", doc.MetadataTitle)
	}

	var title, body *float64
	pages := map[int]bool{}
	for _, s := range doc.Spans {
		pages[s.Page] = true
		size := s.FontSize
		if strings.Contains(s.Text, "Annual") {
			title = &size
			if !s.IsBold {
				t.Errorf("expected bold title span: %+v", s)
			}
		}
		if strings.Contains(s.Text, "Revenue") {
			body = &size
		}
	}
	if title == nil || body == nil {
		t.Fatalf("expected title and body spans, got %v", spanTexts(doc))
	}
	if *title <= *body {
		t.Errorf("expected title size %v above body size %v", *title, *body)
	}
	if math.Abs(*title/(*body)-1.8) > 0.05 {
		t.Errorf("expected 18:10 size ratio, got %v:%v", *title, *body)
	}
	if !pages[1] || !pages[2] {
		t.Errorf("expected spans on both pages, got %v", pages)
	}
}

func TestPDFExtractor_ProbesPageCount(t *testing.T) {
	doc, err := NewPDFExtractor(Options{UseBookmarks: true}).Extract(context.Background(), writeSamplePDF(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", doc.PageCount)
	}
	if len(doc.Bookmarks) != 0 {
		t.Errorf("expected no bookmarks, got %v", doc.Bookmarks)
	}
}

func TestPDFExtractor_Malformed(t *testing.T) {
	path := writeFile(t, "broken.pdf", "%PDF-1.4\nnot really a pdf")
	if _, err := NewPDFExtractor(Options{}).Extract(context.Background(), path); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}
