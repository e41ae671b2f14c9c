package worker

import (
	"sync"

	"go.uber.org/zap"
)

type task func()

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	wg     sync.WaitGroup
	jobs   chan task
	log    *zap.Logger
	mu     sync.RWMutex
	closed bool
	depth  func(int)
}

func NewPool(n, queue int, log *zap.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{jobs: make(chan task, queue), log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}
	return p
}

// OnDepth registers a callback reporting the queue length after each submit.
func (p *Pool) OnDepth(fn func(int)) { p.depth = fn }

// Submit enqueues f without blocking. It reports false when the queue is full or the pool stopped.
func (p *Pool) Submit(f task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		if p.depth != nil {
			p.depth(len(p.jobs))
		}
		return true
	default:
		p.log.Warn("worker queue full, dropping task")
		return false
	}
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) run(job task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker task panicked", zap.Any("panic", r))
		}
	}()
	job()
}
