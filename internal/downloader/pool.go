package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"coversync/pkg/logger"
)

// DownloadJob represents a single cover download
type DownloadJob struct {
	Filename string
	URL      string
}

// DownloadResult represents the result of a download job.
// Skipped is set when the file already existed by the time the job ran.
type DownloadResult struct {
	Job      DownloadJob
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// CoverFetcher downloads cover images
type CoverFetcher interface {
	FetchBinary(ctx context.Context, url string) ([]byte, error)
}

// CoverStorage stores covers in one mirror directory
type CoverStorage interface {
	Exists(name string) (bool, error)
	Save(r io.Reader, name string) error
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan DownloadJob
	resultQueue chan DownloadResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      CoverFetcher
	storage     CoverStorage
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool.
// Cancelling ctx stops the workers after their current job.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	client CoverFetcher,
	storage CoverStorage,
	log logger.Logger,
) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DownloadJob, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan DownloadResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		logger:      logger.OrGlobal(log),
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers and closes the result channel.
// It must be called exactly once, after the last Submit.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job DownloadJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan DownloadResult {
	return wp.resultQueue
}

// Run submits every job, stops the pool and hands each result to handle.
// handle is called from the calling goroutine only.
func (wp *WorkerPool) Run(jobs []DownloadJob, handle func(DownloadResult)) {
	wp.Start()

	go func() {
		defer wp.Stop()
		for i, job := range jobs {
			if err := wp.Submit(job); err != nil {
				wp.logger.WithError(err).WarnWithFields("Download queue closed early", map[string]interface{}{
					"not_submitted": len(jobs) - i,
				})
				return
			}
		}
	}()

	for result := range wp.Results() {
		handle(result)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}
	log := wp.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"file":      job.Filename,
	})

	// Another run may have written the file since the directory was scanned
	exists, err := wp.storage.Exists(job.Filename)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	if exists {
		log.Debug("Cover already present, skipping")
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	data, err := wp.client.FetchBinary(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		log.WithError(err).WarnWithFields("Cover download failed", map[string]interface{}{
			"url": job.URL,
		})
		return result
	}

	result.Size = len(data)

	if err := wp.storage.Save(bytes.NewReader(data), job.Filename); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		log.WithError(err).ErrorWithFields("Cover save failed", map[string]interface{}{
			"size": result.Size,
		})
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	log.DebugWithFields("Cover downloaded", map[string]interface{}{
		"size":     result.Size,
		"duration": result.Duration,
	})

	return result
}
