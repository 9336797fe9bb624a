package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// PDFExtractor probes a PDF with pdfcpu (encryption, page count, bookmarks)
// and reads its spans through a primary/fallback chain.
type PDFExtractor struct {
	Spans        SpanExtractor
	UseBookmarks bool
}

// NewPDFExtractor reads spans with ledongthuc/pdf and, when enabled, falls
// back to pdftotext.
func NewPDFExtractor(opts Options) *PDFExtractor {
	var fallback SpanExtractor
	if opts.FallbackPdftotext {
		fallback = &PdftotextExtractor{}
	}
	return &PDFExtractor{
		Spans:        &Chain{Primary: &GlyphExtractor{}, Fallback: fallback},
		UseBookmarks: opts.UseBookmarks,
	}
}

func (p *PDFExtractor) Extract(ctx context.Context, path string) (*doctree.SpanDocument, error) {
	pr, err := probePDF(path, p.UseBookmarks)
	if err != nil {
		return nil, err
	}
	doc, err := p.Spans.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	if pr.pageCount > 0 {
		doc.PageCount = pr.pageCount
	}
	doc.Bookmarks = pr.bookmarks
	return doc, nil
}

// Chain uses Fallback when Primary fails or finds no text. Callers cannot
// tell which extractor produced the spans.
type Chain struct {
	Primary  SpanExtractor
	Fallback SpanExtractor
}

func (c *Chain) Extract(ctx context.Context, path string) (*doctree.SpanDocument, error) {
	doc, err := c.Primary.Extract(ctx, path)
	if err == nil && len(doc.Spans) > 0 {
		return doc, nil
	}
	if c.Fallback == nil || ctx.Err() != nil {
		return doc, err
	}
	alt, altErr := c.Fallback.Extract(ctx, path)
	switch {
	case altErr == nil && (len(alt.Spans) > 0 || err != nil):
		if alt.MetadataTitle == "" && doc != nil {
			alt.MetadataTitle = doc.MetadataTitle
		}
		return alt, nil
	case err != nil:
		return nil, errors.Join(err, altErr)
	default:
		return doc, nil
	}
}

type probe struct {
	pageCount int
	bookmarks []doctree.OutlineEntry
}

var disableConfigDir sync.Once

// probePDF reports ErrEncrypted for files that need a user password. Other
// pdfcpu failures are not fatal: its validation is stricter than the text
// readers, which get their own chance to open the file.
func probePDF(path string, withBookmarks bool) (probe, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		if isPasswordError(err) {
			return probe{}, fmt.Errorf("%w: %v", ErrEncrypted, err)
		}
		return probe{}, nil
	}
	pr := probe{pageCount: ctx.PageCount}
	if withBookmarks {
		pr.bookmarks = readBookmarks(path)
	}
	return pr, nil
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

func readBookmarks(path string) []doctree.OutlineEntry {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	bms, err := api.Bookmarks(f, nil)
	if err != nil {
		return nil
	}
	var out []doctree.OutlineEntry
	flattenBookmarks(bms, 1, &out)
	return out
}

func flattenBookmarks(bms []pdfcpu.Bookmark, depth int, out *[]doctree.OutlineEntry) {
	for _, bm := range bms {
		if title := strings.TrimSpace(bm.Title); title != "" && bm.PageFrom > 0 {
			*out = append(*out, doctree.OutlineEntry{
				Level: doctree.LevelFromDepth(depth),
				Text:  title,
				Page:  bm.PageFrom,
			})
		}
		flattenBookmarks(bm.Kids, depth+1, out)
	}
}
