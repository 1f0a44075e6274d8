package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines that execute batches of work.
//
// The software device splits each render pass into horizontal bands and hands
// one closure per band to ExecuteAll, which returns once every band is done.
// Bands write disjoint rows, so no further synchronization is needed.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	// queues holds one queue per worker; work is distributed round-robin.
	queues []chan func()

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(p.queues[i])
	}
	return p
}

func (p *WorkerPool) worker(queue chan func()) {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			for {
				select {
				case work := <-queue:
					work()
				default:
					return
				}
			}
		case work := <-queue:
			work()
		}
	}
}

// ExecuteAll runs every work item and waits for all of them to finish.
// If the pool is closed, the work runs on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	wg.Wait()
}

// Close stops the workers after draining queued work.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands splits height rows into at most n bands of near-equal size.
func Bands(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > height {
		n = height
	}
	bands := make([]Band, 0, n)
	y := 0
	for i := range n {
		rows := (height - y) / (n - i)
		bands = append(bands, Band{Y0: y, Y1: y + rows})
		y += rows
	}
	return bands
}
