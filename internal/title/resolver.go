// Package title picks a document title: metadata first, then layout.
package title

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/textnorm"
)

// Source records which strategy produced a title.
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceLayout   Source = "layout"
	SourceHeading  Source = "heading"
	SourceNone     Source = "none"
)

// Result is a resolved title. Page is 0 when the title came from metadata.
type Result struct {
	Title  string
	Page   int
	Source Source
}

// sizeTolerance groups spans whose font sizes differ by rounding only.
const sizeTolerance = 0.5

var placeholders = map[string]bool{
	"untitled":          true,
	"untitled document": true,
	"document":          true,
	"unknown":           true,
	"title":             true,
	"no title":          true,
}

// IsPlaceholder reports whether a metadata title is generic or was derived
// from the file name by the producing application.
func IsPlaceholder(title, filename string) bool {
	key := textnorm.Key(title)
	if key == "" || placeholders[key] {
		return true
	}
	if strings.HasPrefix(key, "microsoft word - ") || strings.HasPrefix(key, "microsoft powerpoint - ") {
		return true
	}
	if filename != "" {
		base := filepath.Base(filename)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if key == textnorm.Key(base) || key == textnorm.Key(stem) {
			return true
		}
	}
	return false
}

// Resolve never fails: a document without usable text gets an empty title,
// even when its metadata carries one.
func Resolve(doc *doctree.SpanDocument, frags []doctree.Fragment) Result {
	if doc == nil || len(doc.Spans) == 0 {
		return Result{Source: SourceNone}
	}
	if t := textnorm.Clean(doc.MetadataTitle); !IsPlaceholder(t, doc.Filename) {
		return Result{Title: t, Source: SourceMetadata}
	}
	if t := LargestBlock(doc.Spans, 1); t != "" {
		return Result{Title: t, Page: 1, Source: SourceLayout}
	}
	for _, f := range frags {
		if f.Level.IsHeading() && strings.TrimSpace(f.Text) != "" {
			return Result{Title: textnorm.Clean(f.Text), Page: f.Page, Source: SourceHeading}
		}
	}
	return Result{Source: SourceNone}
}

// LargestBlock joins the first run of consecutive spans on page that share
// the page's largest font size.
func LargestBlock(spans []doctree.Span, page int) string {
	maxSize := 0.0
	for _, s := range spans {
		if s.Page == page && textnorm.Clean(s.Text) != "" && s.FontSize > maxSize {
			maxSize = s.FontSize
		}
	}
	if maxSize == 0 {
		return ""
	}

	var parts []string
	started := false
	for _, s := range spans {
		if s.Page != page {
			continue
		}
		text := textnorm.Clean(s.Text)
		if text == "" {
			continue
		}
		if math.Abs(s.FontSize-maxSize) <= sizeTolerance {
			parts = append(parts, text)
			started = true
			continue
		}
		if started {
			break
		}
	}
	return strings.Join(parts, " ")
}
