package doctree

import "fmt"

// BBox is a text box in page coordinates. The zero value means "unknown".
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// IsZero reports whether the box carries no position.
func (b BBox) IsZero() bool {
	return b.X0 == 0 && b.Y0 == 0 && b.X1 == 0 && b.Y1 == 0
}

// Span is the smallest unit of extracted text with layout metadata.
type Span struct {
	Text     string
	Page     int // 1-based
	FontSize float64
	IsBold   bool
	Font     string
	BBox     BBox
}

// SpanDocument is everything an extractor hands to the core for one file.
type SpanDocument struct {
	ID            string // Stable document identifier (the input file name)
	Filename      string
	MetadataTitle string
	PageCount     int
	Spans         []Span         // Page order, then layout order within a page
	Bookmarks     []OutlineEntry // Embedded outline (PDF bookmarks), if any
}

// Level is a heading level.
type Level int

const (
	LevelNone Level = iota
	LevelH1
	LevelH2
	LevelH3
)

func (l Level) String() string {
	switch l {
	case LevelH1:
		return "H1"
	case LevelH2:
		return "H2"
	case LevelH3:
		return "H3"
	}
	return "NONE"
}

// IsHeading reports whether l is one of H1..H3.
func (l Level) IsHeading() bool {
	return l >= LevelH1 && l <= LevelH3
}

// Outranks reports whether l is a stronger heading than other (H1 outranks H2).
func (l Level) Outranks(other Level) bool {
	if !l.IsHeading() {
		return false
	}
	if !other.IsHeading() {
		return true
	}
	return l < other
}

// LevelFromDepth maps a 1-based nesting depth onto H1..H3, clamping deeper levels to H3.
func LevelFromDepth(depth int) Level {
	switch {
	case depth <= 1:
		return LevelH1
	case depth == 2:
		return LevelH2
	default:
		return LevelH3
	}
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.IsHeading() {
		return nil, fmt.Errorf("level %d is not a heading level", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "H1":
		*l = LevelH1
	case "H2":
		*l = LevelH2
	case "H3":
		*l = LevelH3
	default:
		return fmt.Errorf("unknown heading level %q", string(b))
	}
	return nil
}

// Signal is a piece of evidence the classifier used.
type Signal uint8

const (
	SignalNumbered Signal = 1 << iota
	SignalFontLarge
	SignalBold
	SignalKeyword
	SignalPosition
)

// Signals is a set of Signal values.
type Signals uint8

func (s Signals) Has(sig Signal) bool { return uint8(s)&uint8(sig) != 0 }

func (s Signals) With(sig Signal) Signals { return Signals(uint8(s) | uint8(sig)) }

// Fragment is a span under heading-classification consideration.
type Fragment struct {
	Span
	Level   Level
	Signals Signals
}

// OutlineEntry is one heading in a document outline.
type OutlineEntry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// DocumentOutline is the structural result for one document.
type DocumentOutline struct {
	Title   string
	Entries []OutlineEntry
}

// Section is a contiguous, titled block of document text.
type Section struct {
	DocumentID string
	DocIndex   int // Position of the document in the input order
	Title      string
	BodyText   string
	StartPage  int
	EndPage    int
}

// ScoredSection is a Section with its relevance score and rank.
type ScoredSection struct {
	Section
	Score float64
	Rank  int // 1 = most relevant
}

// Passage is refined text drawn from a top-ranked section.
type Passage struct {
	DocumentID    string
	Page          int
	RefinedText   string
	SourceSection string
}
