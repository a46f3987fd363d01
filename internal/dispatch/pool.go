package dispatch

import (
	"log/slog"
	"sync"

	"github.com/ios-xr/xrd-ha-agent/internal/vrrpstate"
)

// workerPool runs submitted tasks across a fixed number of goroutines
// consuming a buffered channel. Submission is best-effort non-blocking
// first: a full queue logs a warning but the task is never dropped, it
// falls back to a blocking send.
type workerPool struct {
	tasks  chan func()
	logger *slog.Logger
	wg     sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

func newWorkerPool(size int, logger *slog.Logger) *workerPool {
	p := &workerPool{
		tasks:  make(chan func(), size),
		logger: logger,
		closed: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.closed:
			return
		}
	}
}

// submit enqueues task for execution, identifying the session for the
// delayed-dispatch warning log.
func (p *workerPool) submit(task func(), sess vrrpstate.Session) {
	select {
	case p.tasks <- task:
		return
	default:
	}

	p.logger.Warn("go-active events may be delayed, worker pool is full", "session", sess)
	select {
	case p.tasks <- task:
	case <-p.closed:
	}
}

// close stops accepting work (any later submit observes the closed channel
// and drops the task) and waits for already-running tasks to finish. Each
// worker exits once it observes the closed channel, so tasks still queued
// at that point may never run.
func (p *workerPool) close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}
