package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/docstruct/internal/assemble"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/persona"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

const usage = `Usage: docstruct <command> [options]

Commands:
  outline   write <name>.json with the title and outline of every document in a directory
  rank      rank the sections of a document collection for a persona and job

Run "docstruct <command> -h" for command options.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadWithHeuristics()
	// Logs go to stderr; stdout may carry results.
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err != nil {
		log.Error("invalid heuristics file", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "outline":
		err = runOutline(ctx, cfg, log, os.Args[2:])
	case "rank":
		err = runRank(ctx, cfg, log, os.Stdout, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "docstruct: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("docstruct failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

type outlineOptions struct {
	inDir  string
	outDir string
}

func parseOutlineFlags(args []string) (outlineOptions, error) {
	var opts outlineOptions
	fs := flag.NewFlagSet("outline", flag.ContinueOnError)
	fs.StringVar(&opts.inDir, "in", "input", "Directory containing the documents to outline")
	fs.StringVar(&opts.outDir, "out", "output", "Directory where <name>.json results are written")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.inDir = strings.TrimSpace(opts.inDir)
	opts.outDir = strings.TrimSpace(opts.outDir)
	if opts.inDir == "" || opts.outDir == "" {
		fs.Usage()
		return opts, errors.New("-in and -out must not be empty")
	}
	return opts, nil
}

// runOutline writes one outline file per supported input document. A
// document that fails still gets an empty outline file.
func runOutline(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	opts, err := parseOutlineFlags(args)
	if err != nil {
		return err
	}

	inputs, err := pipeline.DirInputs(opts.inDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Warn("no supported documents found", "dir", opts.inDir)
	}

	runner := pipeline.NewRunner(cfg, nil, log)
	engine := pipeline.NewStructureEngine(cfg, runner, log)
	run := engine.Run(ctx, inputs)

	for _, doc := range run.Documents {
		path := filepath.Join(opts.outDir, assemble.OutlineFileName(doc.Filename))
		if err := assemble.WriteFile(path, doc.Outline); err != nil {
			return err
		}
	}
	log.Info("outlines written", "run_id", run.RunID, "documents", len(run.Documents), "out", opts.outDir)
	return nil
}

type rankOptions struct {
	collection string
	inputFile  string
	outFile    string
	stdout     bool
}

func parseRankFlags(args []string) (rankOptions, error) {
	var opts rankOptions
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.StringVar(&opts.collection, "collection", "", "Collection directory holding the input file and PDFs/")
	fs.StringVar(&opts.inputFile, "input", "challenge1b_input.json", "Collection input file, relative to -collection unless absolute")
	fs.StringVar(&opts.outFile, "out", "", "Result file (default: <collection>/challenge1b_output.json)")
	fs.BoolVar(&opts.stdout, "stdout", false, "Write the result to stdout instead of a file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.collection = strings.TrimSpace(opts.collection)
	if opts.collection == "" {
		fs.Usage()
		return opts, errors.New("missing required -collection directory")
	}
	if !filepath.IsAbs(opts.inputFile) {
		opts.inputFile = filepath.Join(opts.collection, opts.inputFile)
	}
	if opts.outFile == "" {
		opts.outFile = filepath.Join(opts.collection, "challenge1b_output.json")
	}
	return opts, nil
}

func runRank(ctx context.Context, cfg config.Config, log *slog.Logger, stdout io.Writer, args []string) error {
	opts, err := parseRankFlags(args)
	if err != nil {
		return err
	}

	in, err := persona.LoadInput(opts.inputFile)
	if err != nil {
		return err
	}
	vocab, err := persona.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		return err
	}
	pdfDir, err := pipeline.FindPDFDir(opts.collection)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg, nil, log)
	engine := pipeline.NewRelevanceEngine(cfg, runner, vocab, log)
	ranking, err := engine.Run(ctx, in, pipeline.CollectionInputs(in, pdfDir))
	if err != nil {
		return err
	}

	if opts.stdout {
		data, err := assemble.Marshal(ranking)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}
	if err := assemble.WriteFile(opts.outFile, ranking); err != nil {
		return err
	}
	log.Info("ranking written", "out", opts.outFile, "sections", len(ranking.ExtractedSections))
	return nil
}
