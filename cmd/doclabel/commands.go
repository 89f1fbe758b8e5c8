package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/doclabel/internal/config"
	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/engine"
	"github.com/dgallion1/doclabel/internal/parser"
)

// errFatalDiagnostics makes check exit non-zero once the diagnostics have
// been printed.
var errFatalDiagnostics = errors.New("fatal diagnostics")

type globalFlags struct {
	labels       string
	locale       string
	hierarchical bool
	format       string
	verbose      bool
	pdftotext    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "doclabel",
		Short: "Number document sections and resolve cross-references",
		Long: `doclabel reads a structured document (YAML, JSON, Markdown, HTML, DOCX,
PDF or plain text), numbers its clauses, annexes, figures, tables, formulas
and notes, and resolves every cross-reference and citation against them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.format != "json" && g.format != "yaml" {
				return fmt.Errorf("unsupported format %q (json|yaml)", g.format)
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.labels, "labels", "", "Vocabulary YAML file overriding the default labels")
	pf.StringVar(&g.locale, "locale", "", "Locale for symbol collation (default: vocabulary locale)")
	pf.BoolVar(&g.hierarchical, "hierarchical-figures", false, "Number body figures, tables and formulas per top-level clause")
	pf.StringVar(&g.format, "format", "json", "Output format: json|yaml")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output to stderr")
	pf.BoolVar(&g.pdftotext, "pdftotext", true, "Fall back to pdftotext for PDFs without extractable text")

	root.AddCommand(newLabelCmd(g), newAnchorsCmd(g), newCheckCmd(g))
	return root
}

func newLabelCmd(g *globalFlags) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "label <file>",
		Short: "Print the full labeling result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.run(cmd, args[0], title)
			if err != nil {
				return err
			}
			return g.write(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Override the document title")
	return cmd
}

func newAnchorsCmd(g *globalFlags) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "anchors <file>",
		Short: "Print the anchor table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.run(cmd, args[0], "")
			if err != nil {
				return err
			}
			entries := res.Anchors
			if kind != "" {
				entries = entries[:0:0]
				for _, e := range res.Anchors {
					if e.Kind == doctree.Kind(kind) {
						entries = append(entries, e)
					}
				}
			}
			return g.write(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only print anchors of this kind (clause, annex, figure, ...)")
	return cmd
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Print diagnostics; exit 1 on fatal structural errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.run(cmd, args[0], "")
			var list diag.List
			switch {
			case err == nil:
				list = res.Diagnostics
			default:
				fatal, ok := diag.AsList(err)
				if !ok {
					return err
				}
				list = fatal
			}
			if list == nil {
				list = diag.List{}
			}
			if werr := g.write(cmd.OutOrStdout(), list); werr != nil {
				return werr
			}
			if list.HasFatal() {
				return errFatalDiagnostics
			}
			return nil
		},
	}
}

// run parses and labels one file.
func (g *globalFlags) run(cmd *cobra.Command, path, title string) (*engine.Result, error) {
	log := g.logger(cmd.ErrOrStderr())

	cfg := config.Config{
		LabelsFile:           g.labels,
		Locale:               g.locale,
		HierarchicalFigures:  g.hierarchical,
		PDFFallbackPdftotext: g.pdftotext,
	}
	opts, err := cfg.EngineOptions(log)
	if err != nil {
		return nil, err
	}
	eng := engine.New(opts)

	p, err := parser.ForFile(path, parser.Options{
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		Vocabulary:           opts.Vocabulary,
	})
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	doc, err := p.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if title != "" {
		doc.Title = title
	}
	log.Debug("parsed document", "file", path, "nodes", doc.Count())

	return eng.Label(doc)
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (g *globalFlags) write(w io.Writer, v any) error {
	if g.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
