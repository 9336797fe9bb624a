package parser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// TextExtractor handles plain text files. Every non-blank line is one body
// span; header detection is left to the segmenter's line rules.
type TextExtractor struct{}

func (p *TextExtractor) Extract(ctx context.Context, path string) (*doctree.SpanDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := newDocument(path)
	page := 1
	for scanner.Scan() {
		line := scanner.Text()
		// Form feeds separate pages, as in pdftotext output.
		for strings.HasPrefix(line, "\f") {
			page++
			line = line[1:]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		sp := bodySpan(strings.TrimSpace(line))
		sp.Page = page
		doc.Spans = append(doc.Spans, sp)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	doc.PageCount = page
	return doc, nil
}
