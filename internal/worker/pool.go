package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// RatingMirror is the destination for asynchronous rating view updates,
// implemented by the Redis repository.
type RatingMirror interface {
	UpdateRating(ctx context.Context, player string, rating int) error
}

// MirrorTask carries one rating update into the leaderboard view.
type MirrorTask struct {
	Player string
	Rating int
}

// Pool fans rating view updates out to a fixed set of workers. Postgres
// writes stay on the request path; only the Redis mirror is deferred, so a
// full queue costs view freshness, never correctness.
type Pool struct {
	jobs        chan MirrorTask
	workerCount int
	mirror      RatingMirror
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *poolMetrics
}

type poolMetrics struct {
	mu           sync.RWMutex
	processed    int64
	failed       int64
	backpressure int64
}

// NewPool creates a worker pool writing to the given mirror.
func NewPool(workerCount, queueSize int, mirror RatingMirror) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:        make(chan MirrorTask, queueSize),
		workerCount: workerCount,
		mirror:      mirror,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &poolMetrics{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("Starting mirror pool with %d workers, queue size %d", p.workerCount, cap(p.jobs))

	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case task, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processTask(id, task)
		}
	}
}

func (p *Pool) processTask(workerID int, task MirrorTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker #%d panic recovered: %v (player: %s)", workerID, r, task.Player)
			p.metrics.incrementFailed()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.mirror.UpdateRating(ctx, task.Player, task.Rating); err != nil {
		log.Printf("worker #%d failed to mirror rating for %s: %v", workerID, task.Player, err)
		p.metrics.incrementFailed()
		return
	}

	p.metrics.recordSuccess()
}

// Submit queues a task without blocking. A full queue drops the task and
// reports backpressure; the durable rating in Postgres is already written.
func (p *Pool) Submit(task MirrorTask) error {
	select {
	case p.jobs <- task:
		return nil

	default:
		log.Printf("backpressure: mirror queue full, dropping view update for %s", task.Player)
		p.metrics.incrementBackpressure()
		return fmt.Errorf("mirror pool queue full (backpressure)")
	}
}

// Shutdown drains the queue and stops the workers, forcing cancellation
// after timeout.
func (p *Pool) Shutdown(timeout time.Duration) error {
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("mirror pool drained: %s", p.summary())
		return nil

	case <-time.After(timeout):
		p.cancel()
		return fmt.Errorf("mirror pool shutdown timed out after %v", timeout)
	}
}

func (p *Pool) summary() string {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return fmt.Sprintf("processed=%d failed=%d backpressure=%d",
		p.metrics.processed, p.metrics.failed, p.metrics.backpressure)
}

func (m *poolMetrics) recordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
}

func (m *poolMetrics) incrementFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *poolMetrics) incrementBackpressure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backpressure++
}
