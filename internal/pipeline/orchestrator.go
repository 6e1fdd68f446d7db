package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/tafsirgest/internal/config"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/store"
)

// Orchestrator manages the document parse pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	fetcher Fetcher
	sink    store.Sink
	parser  *exegesis.Parser
	stats   *ParseStats
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. fetcher and sink may be nil.
func NewOrchestrator(cfg config.Config, fetcher Fetcher, sink store.Sink, log *slog.Logger) *Orchestrator {
	var opts []exegesis.Option
	if cfg.ParseIntro {
		intro := exegesis.DefaultIntroConfig()
		intro.FontFamily = cfg.IntroFontFamily
		intro.FontSize = cfg.IntroFontSize
		opts = append(opts, exegesis.WithIntro(intro))
	}
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		fetcher: fetcher,
		sink:    sink,
		parser:  exegesis.NewParser(opts...),
		stats:   NewParseStats(time.Hour),
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.fetcher, o.sink, o.parser, o.cfg.ReadBooks, o.stats, o.log)
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

// JobCount returns the number of tracked jobs.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// Stats returns the parse latency window.
func (o *Orchestrator) Stats() *ParseStats {
	return o.stats
}

// Sink returns the persistence sink, or nil when results are kept in memory only.
func (o *Orchestrator) Sink() store.Sink {
	return o.sink
}

// HasFetcher reports whether Google Docs jobs can be processed.
func (o *Orchestrator) HasFetcher() bool {
	return o.fetcher != nil
}
