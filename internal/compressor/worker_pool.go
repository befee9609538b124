package compressor

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolStats is a snapshot of worker pool counters
type PoolStats struct {
	TotalJobs     int64
	CompletedJobs int64
	ActiveWorkers int32
}

// WorkerPool runs block transform jobs on a fixed set of goroutines
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	// mu guards closed; senders hold it for reading so Close never
	// closes jobQueue under an in-flight send
	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int32
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.activeWorkers.Add(1)
		job()
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		wp.wg.Done()
	}
}

// Submit adds a job to the worker pool queue. After Close the job runs on
// the calling goroutine.
func (wp *WorkerPool) Submit(job func()) {
	wp.totalJobs.Add(1)

	wp.mu.RLock()
	if wp.closed {
		wp.mu.RUnlock()
		job()
		wp.completedJobs.Add(1)
		return
	}
	wp.wg.Add(1)
	wp.jobQueue <- job
	wp.mu.RUnlock()
}

// Do submits jobs and blocks until every one of them has finished. Jobs
// submitted concurrently by other callers are not waited for. Do must not
// be called from inside a job.
func (wp *WorkerPool) Do(jobs ...func()) {
	wp.Start()

	var done sync.WaitGroup
	done.Add(len(jobs))
	for _, job := range jobs {
		job := job
		wp.Submit(func() {
			defer done.Done()
			job()
		})
	}
	done.Wait()
}

// GetStats returns the current job counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close shuts down the worker pool once queued jobs are handed to workers.
// It is safe to call more than once and concurrently with Submit.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}
