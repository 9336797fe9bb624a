package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dgallion1/docstruct/internal/assemble"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/heading"
	"github.com/dgallion1/docstruct/internal/outline"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/persona"
	"github.com/dgallion1/docstruct/internal/rank"
	"github.com/dgallion1/docstruct/internal/refine"
	"github.com/dgallion1/docstruct/internal/segment"
	"github.com/dgallion1/docstruct/internal/title"
)

// extractDocument runs the adapter for job. Every failure is an AdapterError.
func extractDocument(ctx context.Context, job *Job, opts parser.Options) (*doctree.SpanDocument, error) {
	job.SetStatus(StatusExtracting, "extracting")
	ex, err := parser.ForFile(job.Filename, opts)
	if err != nil {
		return nil, &AdapterError{Filename: job.Filename, Err: err}
	}
	doc, err := ex.Extract(ctx, job.Path())
	if err != nil {
		return nil, &AdapterError{Filename: job.Filename, Err: err}
	}
	doc.ID = job.Filename
	doc.Filename = job.Filename
	job.SetExtracted(doc.PageCount, len(doc.Spans))
	return doc, nil
}

// Inference is the structural reading of one document.
type Inference struct {
	Title     title.Result
	Fragments []doctree.Fragment
	Outline   doctree.DocumentOutline
}

// Headings counts fragments classified as H1..H3.
func (inf Inference) Headings() int {
	n := 0
	for _, f := range inf.Fragments {
		if f.Level.IsHeading() {
			n++
		}
	}
	return n
}

// StructureEngine produces a title and a leveled outline per document.
type StructureEngine struct {
	runner     *Runner
	opts       parser.Options
	classifier *heading.Classifier
	builder    *outline.Builder
	assembler  *assemble.Assembler
	log        *slog.Logger
}

func NewStructureEngine(cfg config.Config, runner *Runner, log *slog.Logger) *StructureEngine {
	return &StructureEngine{
		runner: runner,
		opts: parser.Options{
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
			UseBookmarks:      cfg.UseBookmarks,
		},
		classifier: heading.New(cfg.Heuristics),
		builder:    outline.New(cfg.Heuristics),
		assembler:  assemble.New(),
		log:        log,
	}
}

// Assembler returns the assembler used for results, so callers can pin the clock.
func (e *StructureEngine) Assembler() *assemble.Assembler {
	return e.assembler
}

// Infer classifies doc, resolves its title and builds its outline. An
// embedded bookmark outline replaces the classified one when enabled. The
// resolved title is not repeated as the first outline entry. A document
// without spans gets an empty title and outline regardless of its metadata.
func (e *StructureEngine) Infer(doc *doctree.SpanDocument) Inference {
	if len(doc.Spans) == 0 {
		return Inference{
			Title:     title.Result{Source: title.SourceNone},
			Fragments: []doctree.Fragment{},
			Outline:   doctree.DocumentOutline{Entries: []doctree.OutlineEntry{}},
		}
	}
	frags := e.classifier.ClassifyAll(doc.Spans)
	tr := title.Resolve(doc, frags)

	var entries []doctree.OutlineEntry
	if e.opts.UseBookmarks && len(doc.Bookmarks) > 0 {
		entries = e.builder.BuildFromBookmarks(doc.Bookmarks)
	} else {
		entries = e.builder.Build(frags)
	}
	titlePage := tr.Page
	if titlePage == 0 {
		// Metadata titles are matched against the first page.
		titlePage = 1
	}
	entries = outline.DropTitle(entries, tr.Title, titlePage)

	return Inference{
		Title:     tr,
		Fragments: frags,
		Outline:   doctree.DocumentOutline{Title: tr.Title, Entries: entries},
	}
}

func (e *StructureEngine) process(ctx context.Context, job *Job) (*DocResult, error) {
	doc, err := extractDocument(ctx, job, e.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job.SetStatus(StatusClassifying, "classifying")
	inf := e.Infer(doc)
	job.SetTitle(inf.Title.Title)
	job.SetOutline(inf.Headings(), len(inf.Outline.Entries))

	res := &DocResult{
		Document: doc,
		Title:    inf.Title,
		Outline:  inf.Outline,
		Status:   StatusCompleted,
	}
	if len(doc.Spans) == 0 {
		res.Status = StatusEmpty
	}
	return res, nil
}

// OutlineResult is the outline of one input document.
type OutlineResult struct {
	Filename string
	Status   JobStatus
	Outline  assemble.Outline
	Err      error
}

// OutlineRun is the result of one structure run.
type OutlineRun struct {
	RunID     string
	Documents []OutlineResult
}

// Run outlines every input. Documents that fail or time out get an empty,
// schema-valid outline.
func (e *StructureEngine) Run(ctx context.Context, inputs []Input) *OutlineRun {
	runID := uuid.NewString()
	results := e.runner.Run(ctx, runID, inputs, e.process)

	run := &OutlineRun{RunID: runID, Documents: make([]OutlineResult, len(results))}
	for i, r := range results {
		run.Documents[i] = OutlineResult{
			Filename: r.Filename,
			Status:   r.Status,
			Outline:  e.assembler.BuildOutline(r.Outline),
			Err:      r.Err,
		}
	}
	return run
}

// RelevanceEngine ranks the sections of a document collection for a persona.
type RelevanceEngine struct {
	runner    *Runner
	structure *StructureEngine
	segmenter *segment.Segmenter
	scorer    *rank.Scorer
	refineCfg refine.Config
	mode      string
	vocab     *persona.Vocabulary
	log       *slog.Logger
}

func NewRelevanceEngine(cfg config.Config, runner *Runner, vocab *persona.Vocabulary, log *slog.Logger) *RelevanceEngine {
	return &RelevanceEngine{
		runner:    runner,
		structure: NewStructureEngine(cfg, runner, log),
		segmenter: segment.New(cfg.Heuristics),
		scorer:    rank.New(cfg.Heuristics),
		refineCfg: refine.Config{TopK: cfg.TopPassages, WordCap: cfg.PassageWordCap},
		mode:      cfg.SegmentMode,
		vocab:     vocab,
		log:       log,
	}
}

// Assembler returns the assembler used for results, so callers can pin the clock.
func (e *RelevanceEngine) Assembler() *assemble.Assembler {
	return e.structure.assembler
}

// Sections splits one document. In outline mode the inferred outline gives
// the boundaries; otherwise the header patterns do.
func (e *RelevanceEngine) Sections(doc *doctree.SpanDocument, docIndex int) []doctree.Section {
	inf := e.structure.Infer(doc)
	if e.mode == "outline" {
		return segment.FromOutline(doc, docIndex, inf.Outline.Entries, inf.Title.Title)
	}
	return e.segmenter.Segment(doc, docIndex, inf.Title.Title)
}

// Rank orders sections for p and refines passages from the top of the list.
func (e *RelevanceEngine) Rank(sections []doctree.Section, p *persona.Profile) ([]doctree.ScoredSection, []doctree.Passage) {
	ranked := e.scorer.Rank(sections, p)
	return ranked, refine.Refine(ranked, e.refineCfg)
}

func (e *RelevanceEngine) process(ctx context.Context, job *Job) (*DocResult, error) {
	doc, err := extractDocument(ctx, job, e.structure.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job.SetStatus(StatusSegmenting, "segmenting")
	sections := e.Sections(doc, job.Index)
	job.SetSections(len(sections))

	res := &DocResult{Document: doc, Sections: sections, Status: StatusCompleted}
	if len(doc.Spans) == 0 {
		res.Status = StatusEmpty
	}
	return res, nil
}

// Run ranks the sections of every input document. Input or persona problems
// are returned as a ConfigurationError before any document is read. Document
// failures only remove that document's sections.
func (e *RelevanceEngine) Run(ctx context.Context, in *persona.CollectionInput, inputs []Input) (*assemble.Ranking, error) {
	if in == nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("%w: missing collection input", persona.ErrInvalidInput)}
	}
	if err := in.Validate(); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	profile, err := persona.FromInput(in, e.vocab)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	runID := uuid.NewString()
	log := e.log.With("run_id", runID)
	log.Info("ranking collection",
		"persona", profile.Role(),
		"job", profile.Task(),
		"keywords", len(profile.Keywords()),
		"documents", len(inputs),
	)

	var sections []doctree.Section
	for _, r := range e.runner.Run(ctx, runID, inputs, e.process) {
		sections = append(sections, r.Sections...)
	}

	ranked, passages := e.Rank(sections, profile)
	ranking := e.structure.assembler.BuildRanking(in.Filenames(), in.Persona.Role, in.JobToBeDone.Task, ranked, passages)
	log.Info("ranking complete", "sections", len(ranked), "passages", len(passages))
	return &ranking, nil
}

// CollectionInputs resolves the input's documents against dir. A missing
// file is still listed so its failure is reported per document.
func CollectionInputs(in *persona.CollectionInput, dir string) []Input {
	inputs := make([]Input, 0, len(in.Documents))
	for _, name := range in.Filenames() {
		inputs = append(inputs, Input{Filename: name, Path: filepath.Join(dir, name)})
	}
	return inputs
}

// FindPDFDir returns the collection's PDF directory: PDFs/ or PDFS/ under
// root, else root itself.
func FindPDFDir(root string) (string, error) {
	for _, name := range []string{"PDFs", "PDFS", "pdfs"} {
		dir := filepath.Join(root, name)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	fi, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("collection directory: %w", err)
	}
	if !fi.IsDir() {
		return "", errors.New("collection path is not a directory")
	}
	return root, nil
}

// DirInputs lists the supported files in dir, sorted by name.
func DirInputs(dir string) ([]Input, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var inputs []Input
	for _, ent := range entries {
		if ent.IsDir() || !parser.IsSupportedExtension(ent.Name()) {
			continue
		}
		inputs = append(inputs, Input{Filename: ent.Name(), Path: filepath.Join(dir, ent.Name())})
	}
	return inputs, nil
}
