package tracer

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Scheduler executes the tile tasks of a frame. Run blocks until work has
// returned for every task.
type Scheduler interface {
	Run(tasks []TileTask, work func(TileTask))

	// Get the number of tasks that may execute concurrently.
	Workers() int

	// Release any workers held by the scheduler.
	Close()
}

// Queue size of the worker pool. Submissions beyond this block until
// workers drain the queue.
const poolQueueSize = 256

// Idle timeout for pool workers.
const poolIdleTimeout = 1 * time.Second

type poolScheduler struct {
	workers int
	pool    worker.DynamicWorkerPool

	// Serializes frames submitted through the same scheduler.
	mu     sync.Mutex
	closed bool
}

// Create a scheduler backed by a pool of workers goroutines. If workers is
// <= 0 the number of available CPUs is used.
func NewPoolScheduler(workers int) Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &poolScheduler{
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, poolQueueSize, poolIdleTimeout),
	}
}

func (s *poolScheduler) Workers() int {
	return s.workers
}

// Close stops the pool. Workers share a single stop channel and a worker
// that receives another worker's stop signal drops it, so some pool
// goroutines may stay parked until the process exits. They never pick up
// work again: Run on a closed scheduler executes tasks on the caller.
func (s *poolScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pool.ClearTaskQueue()
	s.pool.Stop()
}

// Submit every task to the pool and wait for all of them. The pool's own
// wait primitive blocks until idle workers exit so a WaitGroup provides the
// per-frame barrier instead.
func (s *poolScheduler) Run(tasks []TileTask, work func(TileTask)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		serialScheduler{}.Run(tasks, work)
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for taskIndex := range tasks {
		task := tasks[taskIndex]
		s.pool.SubmitTask(worker.Task{
			ID: taskIndex,
			Do: func() (any, error) {
				defer wg.Done()
				work(task)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

type serialScheduler struct{}

// Create a scheduler that runs tasks one after the other on the calling
// goroutine.
func NewSerialScheduler() Scheduler {
	return serialScheduler{}
}

func (serialScheduler) Workers() int {
	return 1
}

func (serialScheduler) Close() {}

func (serialScheduler) Run(tasks []TileTask, work func(TileTask)) {
	for _, task := range tasks {
		work(task)
	}
}
