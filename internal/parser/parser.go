// Package parser turns files into positioned text spans for the core engines.
package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

var (
	// ErrUnsupported is returned for file types no extractor handles.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrEncrypted is returned for PDFs that need a password to open.
	ErrEncrypted = errors.New("document is encrypted")
)

// SpanExtractor yields the spans of one document in page order, then layout
// order within a page.
type SpanExtractor interface {
	Extract(ctx context.Context, path string) (*doctree.SpanDocument, error)
}

// Options configures the extractors returned by ForFile.
type Options struct {
	FallbackPdftotext bool
	UseBookmarks      bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (SpanExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return NewPDFExtractor(opts), nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Synthetic font sizes for formats that carry structure instead of layout.
// They sit on the classifier's default H1/H2/H3 bands.
const (
	syntheticH1Size   = 18
	syntheticH2Size   = 15
	syntheticH3Size   = 13
	syntheticBodySize = 10
)

func headingSpan(text string, level int) doctree.Span {
	size := syntheticH3Size
	switch level {
	case 1:
		size = syntheticH1Size
	case 2:
		size = syntheticH2Size
	}
	return doctree.Span{Text: text, Page: 1, FontSize: float64(size), IsBold: true}
}

func bodySpan(text string) doctree.Span {
	return doctree.Span{Text: text, Page: 1, FontSize: syntheticBodySize}
}

func newDocument(path string) *doctree.SpanDocument {
	base := filepath.Base(path)
	return &doctree.SpanDocument{ID: base, Filename: base, PageCount: 1}
}
