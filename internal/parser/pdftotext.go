package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// PdftotextExtractor runs poppler's `pdftotext -bbox-layout` and turns each
// <line> of its XHTML output into a span. The output has no font
// information: size is the mean word box height and IsBold is never set.
type PdftotextExtractor struct {
	Binary string // defaults to "pdftotext"
}

func (p *PdftotextExtractor) Extract(ctx context.Context, path string) (*doctree.SpanDocument, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftotext"
	}
	cmd := exec.CommandContext(ctx, bin, "-bbox-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	doc, err := parseBBoxLayout(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	base := newDocument(path)
	doc.ID, doc.Filename = base.ID, base.Filename
	return doc, nil
}

func parseBBoxLayout(r io.Reader) (*doctree.SpanDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse pdftotext output: %w", err)
	}

	doc := &doctree.SpanDocument{}
	page := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				doc.MetadataTitle = textContent(n)
				return
			case "page":
				page++
			case "line":
				if sp, ok := lineSpan(n, page); ok {
					doc.Spans = append(doc.Spans, sp)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	doc.PageCount = page
	return doc, nil
}

func lineSpan(line *html.Node, page int) (doctree.Span, bool) {
	var words []string
	var heights float64
	for c := line.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "word" {
			continue
		}
		w := textContent(c)
		if w == "" {
			continue
		}
		words = append(words, w)
		heights += floatAttr(c, "ymax") - floatAttr(c, "ymin")
	}
	if len(words) == 0 {
		return doctree.Span{}, false
	}
	return doctree.Span{
		Text:     strings.Join(words, " "),
		Page:     max(page, 1),
		FontSize: heights / float64(len(words)),
		BBox: doctree.BBox{
			X0: floatAttr(line, "xmin"),
			Y0: floatAttr(line, "ymin"),
			X1: floatAttr(line, "xmax"),
			Y1: floatAttr(line, "ymax"),
		},
	}, true
}

// floatAttr reads a numeric attribute. x/net/html lower-cases attribute names.
func floatAttr(n *html.Node, name string) float64 {
	v, err := strconv.ParseFloat(attr(n, name), 64)
	if err != nil {
		return 0
	}
	return v
}
