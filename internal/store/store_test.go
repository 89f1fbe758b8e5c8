package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgallion1/doclabel/internal/anchors"
	"github.com/dgallion1/doclabel/internal/doctree"
	"github.com/dgallion1/doclabel/internal/engine"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *engine.Result {
	return &engine.Result{
		Title: "Sample",
		Anchors: []anchors.Entry{
			{ID: "scope", Kind: doctree.KindClause, Role: doctree.RoleScope, Label: "1", Xref: "Clause 1", Value: "1", Level: 1, Title: "Scope"},
			{ID: "fig1", Kind: doctree.KindFigure, Label: "Figure 1", Xref: "Figure 1", Value: "1", Level: 2},
			{ID: "ref1", Kind: doctree.KindBibEntry, Level: 2, Bib: &anchors.Bib{Scope: "bib", Identifier: "ISO 1", Normative: true}},
		},
		Citations: map[string]string{"ref1": "ISO 1"},
		Stats:     engine.Stats{Anchors: 3, Unresolved: 1},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	doc := Document{DocID: "doc-1", Filename: "a.md", ContentHash: "abc"}
	if err := s.Save(ctx, doc, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Title != "Sample" || rec.Filename != "a.md" || rec.ContentHash != "abc" {
		t.Errorf("unexpected document %+v", rec.Document)
	}
	if rec.Anchors != 3 || rec.Unresolved != 1 {
		t.Errorf("expected counts 3/1, got %d/%d", rec.Anchors, rec.Unresolved)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if len(rec.Result.Anchors) != 3 {
		t.Fatalf("expected 3 anchors in result, got %d", len(rec.Result.Anchors))
	}
	if rec.Result.Citations["ref1"] != "ISO 1" {
		t.Errorf("expected citation %q, got %q", "ISO 1", rec.Result.Citations["ref1"])
	}
}

func TestGet_NotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAnchors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Document{DocID: "d", Filename: "d.md", ContentHash: "h"}, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	all, err := s.Anchors(ctx, "d", "")
	if err != nil {
		t.Fatalf("Anchors() error = %v", err)
	}
	ids := []string{"scope", "fig1", "ref1"}
	if len(all) != len(ids) {
		t.Fatalf("expected %d anchors, got %d", len(ids), len(all))
	}
	for i, id := range ids {
		if all[i].ID != id {
			t.Errorf("anchor[%d]: expected %q, got %q", i, id, all[i].ID)
		}
	}
	if all[0].Role != doctree.RoleScope || all[0].Xref != "Clause 1" {
		t.Errorf("unexpected first anchor %+v", all[0])
	}
	if all[2].Bib == nil || all[2].Bib.Identifier != "ISO 1" || !all[2].Bib.Normative {
		t.Errorf("expected bib attributes to round-trip, got %+v", all[2].Bib)
	}

	figs, err := s.Anchors(ctx, "d", doctree.KindFigure)
	if err != nil {
		t.Fatalf("Anchors(figure) error = %v", err)
	}
	if len(figs) != 1 || figs[0].Label != "Figure 1" {
		t.Errorf("expected one figure, got %+v", figs)
	}

	if _, err := s.Anchors(ctx, "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_Replaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	doc := Document{DocID: "d", Filename: "d.md", ContentHash: "h1"}
	if err := s.Save(ctx, doc, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	smaller := sampleResult()
	smaller.Anchors = smaller.Anchors[:1]
	smaller.Stats.Anchors = 1
	doc.ContentHash = "h2"
	if err := s.Save(ctx, doc, smaller); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := s.Anchors(ctx, "d", "")
	if err != nil {
		t.Fatalf("Anchors() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected anchors to be replaced, got %d", len(got))
	}
	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.Documents != 1 || totals.Anchors != 1 {
		t.Errorf("expected totals 1/1, got %+v", totals)
	}
}

func TestFindByHash(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Document{DocID: "d", Filename: "d.md", ContentHash: "hash-1"}, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	id, ok, err := s.FindByHash(ctx, "hash-1")
	if err != nil || !ok || id != "d" {
		t.Errorf("expected (d, true, nil), got (%q, %v, %v)", id, ok, err)
	}
	if _, ok, err := s.FindByHash(ctx, "other"); err != nil || ok {
		t.Errorf("expected no match, got ok=%v err=%v", ok, err)
	}
}

func TestDelete_Cascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, Document{DocID: "d", Filename: "d.md", ContentHash: "h"}, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	n, err := s.Delete(ctx, "d")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 anchors deleted, got %d", n)
	}

	totals, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if totals.Documents != 0 || totals.Anchors != 0 {
		t.Errorf("expected empty store, got %+v", totals)
	}

	if _, err := s.Delete(ctx, "d"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if err := s.Save(context.Background(), Document{DocID: "m", Filename: "m.md", ContentHash: "h"}, sampleResult()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Get(context.Background(), "m"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	docs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil list, got %v", docs)
	}

	for _, id := range []string{"a", "b"} {
		if err := s.Save(ctx, Document{DocID: id, Filename: id + ".md", ContentHash: "h-" + id}, sampleResult()); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	docs, err = s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Title != "Sample" || docs[0].Anchors != 3 {
		t.Errorf("unexpected document %+v", docs[0])
	}

	docs, err = s.List(ctx, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected limit to apply, got %d", len(docs))
	}
}
