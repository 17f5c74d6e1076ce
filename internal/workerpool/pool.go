package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"tkscraper/pkg/logger"
)

// Job is one unit of work submitted to the pool
type Job struct {
	ID  string
	Run func(ctx context.Context) error
}

// Result reports how a Job finished
type Result struct {
	JobID    string
	Index    int
	Err      error
	Duration time.Duration
}

type task struct {
	ctx   context.Context
	job   Job
	index int
	out   chan<- Result
}

// Pool runs jobs on a fixed number of goroutines. The worker count is
// independent of how many jobs a single Dispatch carries.
type Pool struct {
	numWorkers int
	queue      chan task
	wg         sync.WaitGroup
	mu         sync.RWMutex
	started    bool
	closed     bool
	logger     logger.Logger
}

// New creates a pool with numWorkers workers (at least one)
func New(numWorkers int, log logger.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		queue:      make(chan task, numWorkers*2),
		logger:     logger.OrNop(log).WithField("component", "workerpool"),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	p.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop lets queued jobs finish and waits for every worker to exit
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("Worker pool stopped")
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.numWorkers
}

// Dispatch runs every job and returns only once each one has a Result,
// ordered like jobs. Jobs that could not be queued because ctx ended or
// the pool was stopped get ctx.Err() or an error without running.
func (p *Pool) Dispatch(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	out := make(chan Result, len(jobs))
	pending := 0

	p.mu.RLock()
	for i, job := range jobs {
		if p.closed || !p.started {
			results[i] = Result{JobID: job.ID, Index: i, Err: fmt.Errorf("worker pool is not running")}
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i] = Result{JobID: job.ID, Index: i, Err: err}
			continue
		}
		select {
		case p.queue <- task{ctx: ctx, job: job, index: i, out: out}:
			pending++
		case <-ctx.Done():
			results[i] = Result{JobID: job.ID, Index: i, Err: ctx.Err()}
		}
	}
	p.mu.RUnlock()

	for ; pending > 0; pending-- {
		r := <-out
		results[r.Index] = r
	}
	return results
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		t.out <- p.run(id, t)
	}
}

func (p *Pool) run(workerID int, t task) (res Result) {
	start := time.Now()
	res = Result{JobID: t.job.ID, Index: t.index}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("job %s panicked: %v", t.job.ID, r)
			p.logger.ErrorWithFields("Worker recovered from panic", map[string]interface{}{
				"worker_id": workerID,
				"job_id":    t.job.ID,
				"panic":     fmt.Sprint(r),
				"stack":     string(debug.Stack()),
			})
		}
		res.Duration = time.Since(start)
	}()

	res.Err = t.job.Run(t.ctx)
	return res
}
