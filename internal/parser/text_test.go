package parser

import (
	"context"
	"testing"
)

func TestTextExtractor_LinesBecomeSpans(t *testing.T) {
	input := "INTRODUCTION\nFirst line.\n\n   \nSecond line.\n\fPAGE TWO\nLast line."
	doc, err := (&TextExtractor{}).Extract(context.Background(), writeFile(t, "notes.txt", input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		text string
		page int
	}{
		{"INTRODUCTION", 1},
		{"First line.", 1},
		{"Second line.", 1},
		{"PAGE TWO", 2},
		{"Last line.", 2},
	}
	if len(doc.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %v", len(want), len(doc.Spans), spanTexts(doc))
	}
	for i, w := range want {
		if doc.Spans[i].Text != w.text || doc.Spans[i].Page != w.page {
			t.Errorf("span[%d]: expected %q on page %d, got %q on page %d",
				i, w.text, w.page, doc.Spans[i].Text, doc.Spans[i].Page)
		}
	}
	if doc.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", doc.PageCount)
	}
}

func TestTextExtractor_EmptyInput(t *testing.T) {
	doc, err := (&TextExtractor{}).Extract(context.Background(), writeFile(t, "empty.txt", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Filename != "empty.txt" {
		t.Errorf("expected filename %q, got %q", "empty.txt", doc.Filename)
	}
	if len(doc.Spans) != 0 {
		t.Errorf("expected 0 spans for empty input, got %d", len(doc.Spans))
	}
}

func TestTextExtractor_MissingFile(t *testing.T) {
	if _, err := (&TextExtractor{}).Extract(context.Background(), "/nonexistent/x.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
