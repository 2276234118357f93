package convert

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// Package-specific error codes for the worker pool
var (
	WorkerPoolAlreadyRunning = errors.MustNewCode("convert.pool_already_running")
	WorkerPoolNotRunning     = errors.MustNewCode("convert.pool_not_running")
)

// Task interface that all worker pool tasks must implement
type Task interface {
	Execute(ctx context.Context) error
	GetID() string
}

// WorkerPool manages a pool of workers for concurrent task execution.
// Submit blocks when every worker is busy and the queue is full; Wait joins
// all submitted tasks.
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan Task
	logger     zerolog.Logger
	ctx        context.Context
	wg         sync.WaitGroup
	workersWG  sync.WaitGroup
	mu         sync.Mutex
	running    bool
	stats      PoolStats
}

// PoolStats tracks worker pool counters.
type PoolStats struct {
	TasksSubmitted int64 `json:"tasks_submitted"`
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(maxWorkers int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan Task, maxWorkers*2),
		logger:     logger,
	}
}

// Start starts the workers. ctx is handed to every task execution; a
// cancelled ctx makes running tasks wind down at their next checkpoint.
func (wp *WorkerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return errors.New(WorkerPoolAlreadyRunning, "worker pool is already running", nil)
	}
	wp.ctx = ctx
	for i := 0; i < wp.maxWorkers; i++ {
		wp.workersWG.Add(1)
		go wp.run(wp.logger.With().Int("worker_id", i).Logger())
	}
	wp.running = true
	wp.logger.Info().Int("max_workers", wp.maxWorkers).Msg("Worker pool started")
	return nil
}

// Submit hands a task to the pool, blocking until a queue slot frees up or
// ctx is cancelled.
func (wp *WorkerPool) Submit(ctx context.Context, task Task) error {
	wp.mu.Lock()
	running := wp.running
	wp.mu.Unlock()
	if !running {
		return errors.New(WorkerPoolNotRunning, "worker pool is not running", nil)
	}

	wp.wg.Add(1)
	select {
	case wp.taskQueue <- task:
		atomic.AddInt64(&wp.stats.TasksSubmitted, 1)
		wp.logger.Debug().Str("task_id", task.GetID()).Msg("Task submitted to worker pool")
		return nil
	case <-ctx.Done():
		wp.wg.Done()
		return ctx.Err()
	}
}

// Wait blocks until every submitted task has been processed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop stops the workers after the queued tasks drain.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return errors.New(WorkerPoolNotRunning, "worker pool is not running", nil)
	}
	close(wp.taskQueue)
	wp.workersWG.Wait()
	wp.running = false
	wp.logger.Info().Msg("Worker pool stopped")
	return nil
}

// GetStats returns a snapshot of the pool counters.
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TasksSubmitted: atomic.LoadInt64(&wp.stats.TasksSubmitted),
		TasksCompleted: atomic.LoadInt64(&wp.stats.TasksCompleted),
		TasksFailed:    atomic.LoadInt64(&wp.stats.TasksFailed),
	}
}

// run is the main worker loop.
func (wp *WorkerPool) run(logger zerolog.Logger) {
	defer wp.workersWG.Done()
	logger.Debug().Msg("Worker started")

	for task := range wp.taskQueue {
		wp.processTask(task, logger)
	}
	logger.Debug().Msg("Task queue closed, worker stopping")
}

// processTask processes a single task. A failing task is logged and counted;
// it never stops the other workers.
func (wp *WorkerPool) processTask(task Task, logger zerolog.Logger) {
	defer wp.wg.Done()

	logger.Debug().Str("task_id", task.GetID()).Msg("Processing task")
	if err := task.Execute(wp.ctx); err != nil {
		atomic.AddInt64(&wp.stats.TasksFailed, 1)
		logger.Error().Err(err).Str("task_id", task.GetID()).Msg("Task execution failed")
		return
	}
	atomic.AddInt64(&wp.stats.TasksCompleted, 1)
	logger.Debug().Str("task_id", task.GetID()).Msg("Task completed successfully")
}
