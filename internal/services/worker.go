package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"alfredoptarigan/assignment-grader/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(job Job)
}

// Job is one queued batch. The credential travels with the job in memory and
// is never written to the database.
type Job struct {
	BatchID uuid.UUID
	APIKey  string
}

type WorkerOptions struct {
	Concurrency  int
	PollInterval time.Duration
	// FallbackAPIKey is used for jobs recovered by the poller.
	FallbackAPIKey string
}

type worker struct {
	batchRepo repositories.BatchRepository
	evaluator BatchEvaluator
	jobQueue  chan Job
	opts      WorkerOptions
	log       zerolog.Logger
	wg        sync.WaitGroup
	stopChan  chan struct{}
	stopOnce  sync.Once

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewWorker(
	batchRepo repositories.BatchRepository,
	evaluator BatchEvaluator,
	opts WorkerOptions,
	log zerolog.Logger,
) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	return &worker{
		batchRepo: batchRepo,
		evaluator: evaluator,
		jobQueue:  make(chan Job, 100),
		opts:      opts,
		log:       log,
		stopChan:  make(chan struct{}),
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

func (w *worker) Start(ctx context.Context) {
	w.log.Info().Int("concurrency", w.opts.Concurrency).Msg("Starting worker")

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info().Msg("Stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info().Msg("Worker stopped")
	})
}

func (w *worker) EnqueueJob(job Job) {
	if !w.claim(job.BatchID) {
		return
	}
	select {
	case w.jobQueue <- job:
		w.log.Debug().Str("batch_id", job.BatchID.String()).Msg("Job enqueued")
	case <-w.stopChan:
		w.release(job.BatchID)
		w.log.Warn().Str("batch_id", job.BatchID.String()).Msg("Worker stopped, job not enqueued")
	}
}

// claim keeps the poller from queueing a batch that is already queued or running.
func (w *worker) claim(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.inflight[id]; ok {
		return false
	}
	w.inflight[id] = struct{}{}
	return true
}

func (w *worker) release(id uuid.UUID) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.mu.Unlock()
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With().Int("worker", workerID).Logger()

	for {
		select {
		case <-w.stopChan:
			log.Debug().Msg("Worker goroutine stopped")
			return
		case job := <-w.jobQueue:
			log.Info().Str("batch_id", job.BatchID.String()).Msg("Processing batch")
			if err := w.evaluator.EvaluateBatch(ctx, job.BatchID, job.APIKey); err != nil {
				log.Error().Err(err).Str("batch_id", job.BatchID.String()).Msg("Batch failed")
			}
			w.release(job.BatchID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// jobs younger than one interval are still owned by their request
			pending, err := w.batchRepo.FindPendingJobs(10, time.Now().Add(-w.opts.PollInterval))
			if err != nil {
				w.log.Warn().Err(err).Msg("Failed to fetch pending jobs")
				continue
			}
			if len(pending) > 0 {
				w.log.Info().Int("count", len(pending)).Msg("Found pending batches")
			}
			for _, job := range pending {
				w.EnqueueJob(Job{BatchID: job.ID, APIKey: w.opts.FallbackAPIKey})
			}
		}
	}
}
