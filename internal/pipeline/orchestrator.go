package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/doclabel/internal/config"
	"github.com/dgallion1/doclabel/internal/engine"
	"github.com/dgallion1/doclabel/internal/parser"
	"github.com/dgallion1/doclabel/internal/publish"
	"github.com/dgallion1/doclabel/internal/store"
)

// Orchestrator manages the document labeling pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	engine    *engine.Engine
	store     *store.Store
	publisher *publish.Client
	stats     *EngineStats
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. pub may be nil.
func NewOrchestrator(cfg config.Config, eng *engine.Engine, st *store.Store, pub *publish.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		engine:    eng,
		store:     st,
		publisher: pub,
		stats:     NewEngineStats(time.Hour),
		log:       log,
		cfg:       cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	vocab := o.engine.Vocabulary()
	parseOpts := parser.Options{
		PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext,
		Vocabulary:           &vocab,
	}

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.engine, o.store, o.publisher, o.stats, o.log, parseOpts)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the result store for direct use by API handlers.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Publisher returns the publish client, or nil when publishing is off.
func (o *Orchestrator) Publisher() *publish.Client {
	return o.publisher
}

// Stats returns the engine latency stats.
func (o *Orchestrator) Stats() *EngineStats {
	return o.stats
}
