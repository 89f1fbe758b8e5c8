// Package engine runs the two labeling phases over a document: building the
// anchor table, then resolving references, numbering notes and collating
// symbol lists against it.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/dgallion1/doclabel/internal/anchors"
	"github.com/dgallion1/doclabel/internal/classify"
	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/labels"
	"github.com/dgallion1/doclabel/internal/notes"
	"github.com/dgallion1/doclabel/internal/numbering"
	"github.com/dgallion1/doclabel/internal/symbols"
	"github.com/dgallion1/doclabel/internal/xref"
)

// Options configure an Engine. The zero value uses the default vocabulary
// and its locale.
type Options struct {
	Vocabulary *labels.Vocabulary
	Numbering  numbering.Options
	Locale     language.Tag
	Logger     *slog.Logger
}

// Stats summarises a run.
type Stats struct {
	Nodes      int `json:"nodes" yaml:"nodes"`
	Anchors    int `json:"anchors" yaml:"anchors"`
	References int `json:"references" yaml:"references"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
	Footnotes  int `json:"footnotes" yaml:"footnotes"`
	Comments   int `json:"comments" yaml:"comments"`
}

// Result is everything produced for one document.
type Result struct {
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Anchors     []anchors.Entry   `json:"anchors" yaml:"anchors"`
	References  []xref.Resolved   `json:"references" yaml:"references"`
	Citations   map[string]string `json:"citations" yaml:"citations"`
	Notes       notes.Notes       `json:"notes" yaml:"notes"`
	Symbols     []symbols.List    `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Diagnostics diag.List         `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Stats       Stats             `json:"stats" yaml:"stats"`
}

// Engine labels documents. An Engine holds no per-document state and may be
// shared; each Label call is independent.
type Engine struct {
	vocab  labels.Vocabulary
	opts   numbering.Options
	locale language.Tag
	log    *slog.Logger
}

// New returns an engine for opts.
func New(opts Options) *Engine {
	vocab := labels.Default()
	if opts.Vocabulary != nil {
		vocab = *opts.Vocabulary
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.Make(vocab.Locale)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{vocab: vocab, opts: opts.Numbering, locale: locale, log: log}
}

// Vocabulary returns the vocabulary the engine renders with.
func (e *Engine) Vocabulary() labels.Vocabulary {
	return e.vocab
}

// Label runs both phases over doc. Fatal structural problems are returned
// as a diag.List (see diag.AsList) after the whole tree has been scanned;
// no partial result is produced in that case.
func (e *Engine) Label(doc *doctree.Document) (*Result, error) {
	doc.Link()

	// Phase 1: classification and the anchor table.
	outline := classify.Classify(doc, e.vocab)
	table, err := anchors.Build(outline, e.opts, e.vocab)
	if err != nil {
		if list, ok := diag.AsList(err); ok {
			list.Log(e.log)
		}
		return nil, fmt.Errorf("build anchor table: %w", err)
	}

	// Phase 2: read-only against the table.
	numbered := notes.Number(outline)
	reqs := Requests(outline)
	resolver := xref.NewResolver(table, e.vocab, xref.WithNoteNumbers(numbered.Numbers()))
	resolution := resolver.ResolveAll(reqs)
	lists := symbols.Collate(outline, e.locale)

	res := &Result{
		Title:       doc.Title,
		Anchors:     table.Entries(),
		References:  resolution.References,
		Citations:   resolution.Citations,
		Notes:       numbered,
		Symbols:     lists,
		Diagnostics: resolution.Diagnostics,
		Stats: Stats{
			Nodes:      len(outline.All()),
			Anchors:    table.Len(),
			References: len(resolution.References),
			Unresolved: len(resolution.Diagnostics.Filter(diag.CodeUnresolvedReference)),
			Footnotes:  len(numbered.Footnotes),
			Comments:   len(numbered.Comments),
		},
	}
	res.Diagnostics.Log(e.log)

	e.log.Debug("document labeled",
		"title", doc.Title,
		"anchors", res.Stats.Anchors,
		"references", res.Stats.References,
		"unresolved", res.Stats.Unresolved,
	)
	return res, nil
}

// Requests collects the reference requests of every node in document order.
func Requests(o *classify.Outline) []xref.Request {
	var reqs []xref.Request
	for _, it := range o.All() {
		for _, ref := range it.Node.References {
			target := strings.TrimSpace(ref.Target)
			if target == "" {
				continue
			}
			reqs = append(reqs, xref.Request{
				Target:      target,
				RawLocality: ref.Locality,
				Text:        ref.Text,
				Case:        ref.Case,
				Droploc:     ref.Droploc,
				Source:      it.ID,
				Ordinal:     len(reqs),
			})
		}
	}
	return reqs
}
