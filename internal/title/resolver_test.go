package title

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/docstruct/internal/doctree"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		title    string
		filename string
		want     bool
	}{
		{"", "report.pdf", true},
		{"  ", "report.pdf", true},
		{"Untitled", "report.pdf", true},
		{"Microsoft Word - draft_v3.docx", "report.pdf", true},
		{"report", "report.pdf", true},
		{"report.pdf", "report.pdf", true},
		{"Annual Report 2024", "report.pdf", false},
		{"Overview of Foundation Level Extensions", "file02.pdf", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPlaceholder(tt.title, tt.filename), "title=%q", tt.title)
	}
}

func TestResolve_MetadataWins(t *testing.T) {
	doc := &doctree.SpanDocument{
		Filename:      "a.pdf",
		MetadataTitle: "  RFP: Digital Library ",
		Spans:         []doctree.Span{{Text: "Something Else", Page: 1, FontSize: 30}},
	}
	got := Resolve(doc, nil)
	assert.Equal(t, Result{Title: "RFP: Digital Library", Source: SourceMetadata}, got)
}

func TestResolve_LayoutFallback(t *testing.T) {
	doc := &doctree.SpanDocument{
		Filename: "report.pdf",
		Spans: []doctree.Span{
			{Text: "Company Confidential", Page: 1, FontSize: 9},
			{Text: "Annual Report 2024", Page: 1, FontSize: 18},
			{Text: "Prepared by Finance", Page: 1, FontSize: 11},
			{Text: "Even Bigger", Page: 2, FontSize: 40},
		},
	}
	got := Resolve(doc, nil)
	assert.Equal(t, "Annual Report 2024", got.Title)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, SourceLayout, got.Source)
}

func TestLargestBlock_JoinsConsecutiveSpans(t *testing.T) {
	spans := []doctree.Span{
		{Text: "Overview", Page: 1, FontSize: 24},
		{Text: "Foundation Level Extensions", Page: 1, FontSize: 23.8},
		{Text: "Version 1.0", Page: 1, FontSize: 12},
		{Text: "Unrelated", Page: 1, FontSize: 24},
	}
	assert.Equal(t, "Overview Foundation Level Extensions", LargestBlock(spans, 1))
}

func TestResolve_HeadingFallback(t *testing.T) {
	doc := &doctree.SpanDocument{
		Spans: []doctree.Span{{Text: "Intro", Page: 2, FontSize: 18}},
	}
	frags := []doctree.Fragment{
		{Span: doctree.Span{Text: "body", Page: 2}, Level: doctree.LevelNone},
		{Span: doctree.Span{Text: "Intro", Page: 2}, Level: doctree.LevelH1},
	}
	got := Resolve(doc, frags)
	assert.Equal(t, Result{Title: "Intro", Page: 2, Source: SourceHeading}, got)
}

func TestResolve_EmptyDocument(t *testing.T) {
	got := Resolve(&doctree.SpanDocument{Filename: "scan.pdf"}, nil)
	assert.Equal(t, "", got.Title)
	assert.Equal(t, SourceNone, got.Source)

	assert.Equal(t, "", Resolve(nil, nil).Title)

	scanned := &doctree.SpanDocument{Filename: "scan.pdf", MetadataTitle: "Quarterly Scan"}
	assert.Equal(t, Result{Source: SourceNone}, Resolve(scanned, nil))
}
