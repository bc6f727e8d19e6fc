package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrQueueFull   = errors.New("worker pool task queue is full")
)

// Task runs with the pool context, which is cancelled on Stop. Every accepted
// task runs exactly once; tasks still queued at Stop see a cancelled context.
type Task func(ctx context.Context)

type WorkerPool struct {
	tasks       chan Task
	wg          sync.WaitGroup
	busyWorkers atomic.Int64
	maxWorkers  int
	waitTimeout time.Duration
	logger      zerolog.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
}

func NewWorkerPool(maxWorkers, queueSize int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = maxWorkers * 10
	}
	return &WorkerPool{
		tasks:       make(chan Task, queueSize),
		maxWorkers:  maxWorkers,
		waitTimeout: time.Second,
		logger:      logger,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started || wp.stopped {
		return
	}
	wp.started = true

	ctx, wp.cancel = context.WithCancel(ctx)
	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	wp.logger.Info().Int("max_workers", wp.maxWorkers).Int("queue_capacity", cap(wp.tasks)).Msg("Worker pool started")
}

// Stop cancels running tasks, runs queued ones with the cancelled context and
// waits for workers to exit.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	started := wp.started
	if wp.cancel != nil {
		wp.cancel()
	}
	close(wp.tasks)
	wp.mu.Unlock()

	if !started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for task := range wp.tasks {
			wp.run(ctx, -1, task)
		}
	}

	wp.wg.Wait()
	wp.logger.Info().Msg("Worker pool stopped")
}

// Submit queues task, waiting briefly when the queue is full.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.tasks <- task:
		return nil
	default:
	}

	wp.logger.Warn().Msg("Worker pool task queue is full")
	timer := time.NewTimer(wp.waitTimeout)
	defer timer.Stop()
	select {
	case wp.tasks <- task:
		return nil
	case <-timer.C:
		return ErrQueueFull
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range wp.tasks {
		wp.run(ctx, id, task)
	}

	wp.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (wp *WorkerPool) run(ctx context.Context, id int, task Task) {
	wp.busyWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
		wp.busyWorkers.Add(-1)
	}()

	task(ctx)
}

func (wp *WorkerPool) BusyWorkers() int {
	return int(wp.busyWorkers.Load())
}

func (wp *WorkerPool) QueueLength() int {
	return len(wp.tasks)
}

func (wp *WorkerPool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"busy_workers":   wp.BusyWorkers(),
		"max_workers":    wp.maxWorkers,
		"queue_length":   len(wp.tasks),
		"queue_capacity": cap(wp.tasks),
	}
}
