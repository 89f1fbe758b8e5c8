package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/doclabel/internal/diag"
	"github.com/dgallion1/doclabel/internal/engine"
	"github.com/dgallion1/doclabel/internal/parser"
	"github.com/dgallion1/doclabel/internal/publish"
	"github.com/dgallion1/doclabel/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	engine    *engine.Engine
	store     *store.Store
	publisher *publish.Client // nil disables publishing
	stats     *EngineStats
	log       *slog.Logger
	parseOpts parser.Options
}

func NewWorker(eng *engine.Engine, st *store.Store, pub *publish.Client, stats *EngineStats, log *slog.Logger, parseOpts parser.Options) *Worker {
	return &Worker{
		engine:    eng,
		store:     st,
		publisher: pub,
		stats:     stats,
		log:       log,
		parseOpts: parseOpts,
	}
}

// Process runs the full labeling pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parseOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Hash the parsed structure, not the upload bytes, so the same document
	// in two formats is recognised.
	hash := ContentHashHex([]byte(doc.Title + "\n" + doc.FlattenText()))
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, found, err := w.store.FindByHash(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if found && existing != job.DocID {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetDuplicateOf(existing)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Label
	job.SetStatus(StatusLabeling, "labeling")
	start := time.Now()
	res, err := w.engine.Label(doc)
	w.stats.Record(time.Since(start).Milliseconds(), err != nil)
	if err != nil {
		if list, ok := diag.AsList(err); ok {
			job.SetDiagnostics(list)
		}
		log.Error("labeling failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "labeling")
		return
	}
	job.SetResult(res)
	log.Info("labeled document",
		"anchors", res.Stats.Anchors,
		"references", res.Stats.References,
		"unresolved", res.Stats.Unresolved,
	)

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	err = w.store.Save(ctx, store.Document{
		DocID:       job.DocID,
		Filename:    job.Filename,
		ContentHash: hash,
	}, res)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	// Phase 4: Publish. A failed delivery leaves the stored result in place.
	if w.publisher != nil {
		job.SetStatus(StatusPublishing, "publishing")
		if err := w.publish(ctx, log, publish.Payload{
			DocID:       job.DocID,
			Filename:    job.Filename,
			ContentHash: hash,
			Result:      res,
		}); err != nil {
			log.Error("publish failed", "error", err)
			job.AddError(fmt.Sprintf("publish: %s", err))
			job.SetStatus(StatusFailed, "publishing")
			return
		}
	}

	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) publish(ctx context.Context, log *slog.Logger, payload publish.Payload) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.publisher.Put(ctx, payload)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable publish error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
