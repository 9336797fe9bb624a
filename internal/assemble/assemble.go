// Package assemble packages engine results into the external JSON contract.
package assemble

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// Outline is the per-document structure result.
type Outline struct {
	Title   string                 `json:"title"`
	Outline []doctree.OutlineEntry `json:"outline"`
}

// Ranking is the collection-level relevance result.
type Ranking struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Assembler builds results. Now is injectable for deterministic output.
type Assembler struct {
	Now func() time.Time
}

func New() *Assembler {
	return &Assembler{Now: time.Now}
}

// BuildOutline never returns a nil outline slice.
func (a *Assembler) BuildOutline(o doctree.DocumentOutline) Outline {
	entries := make([]doctree.OutlineEntry, 0, len(o.Entries))
	entries = append(entries, o.Entries...)
	return Outline{Title: o.Title, Outline: entries}
}

// BuildRanking lists every ranked section and the refined passages.
func (a *Assembler) BuildRanking(documents []string, role, task string, ranked []doctree.ScoredSection, passages []doctree.Passage) Ranking {
	docs := make([]string, 0, len(documents))
	docs = append(docs, documents...)

	sections := make([]ExtractedSection, 0, len(ranked))
	for _, s := range ranked {
		sections = append(sections, ExtractedSection{
			Document:       s.DocumentID,
			SectionTitle:   s.Title,
			ImportanceRank: s.Rank,
			PageNumber:     s.StartPage,
		})
	}

	analysis := make([]SubsectionAnalysis, 0, len(passages))
	for _, p := range passages {
		analysis = append(analysis, SubsectionAnalysis{
			Document:    p.DocumentID,
			RefinedText: p.RefinedText,
			PageNumber:  p.Page,
		})
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return Ranking{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             role,
			JobToBeDone:         task,
			ProcessingTimestamp: now().Format(time.RFC3339),
		},
		ExtractedSections:  sections,
		SubsectionAnalysis: analysis,
	}
}

// Marshal encodes v with two-space indentation and no HTML escaping.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes v as indented JSON, creating parent directories.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OutlineFileName maps "report.pdf" to "report.json".
func OutlineFileName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}
