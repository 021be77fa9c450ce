// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"sync"
	"time"
)

// Result is the outcome of a Submit call.
type Result int

const (
	// Accepted means the job has either been handed directly to an idle
	// worker or appended to the queue for the next one to become free.
	Accepted Result = iota
	// Rejected means the pool was saturated (queue length plus active
	// workers already at MaxThreads); the caller should answer with a
	// service-unavailable response rather than block.
	Rejected
)

// Config bounds the pool's goroutine count and idle lifetime.
type Config struct {
	// MinThreads is the baseline number of workers kept alive regardless
	// of idle time.
	MinThreads int
	// MaxThreads bounds queue length plus active workers; Submit rejects
	// once this ceiling is reached.
	MaxThreads int
	// IdleTimeout is how long a worker waits for a job before considering
	// retirement (subject to MinThreads).
	IdleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinThreads <= 0 {
		c.MinThreads = 4
	}
	if c.MaxThreads < c.MinThreads {
		c.MaxThreads = c.MinThreads
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	return c
}

// Pool is a fair-queue blocking worker pool: a bounded set of goroutines
// that execute jobs submitted from the async runtime, used for handler code
// that performs blocking I/O or other work that cannot yield cooperatively.
//
// Jobs are served FIFO. Workers are woken LIFO -- the most recently idled
// worker always gets the next job -- so that workers which have been cold
// the longest are the ones whose idle timers expire and shrink the pool
// back toward MinThreads.
type Pool struct {
	cfg   Config
	queue *jobQueue
	name  string

	mu            sync.Mutex
	totalThreads  int
	activeThreads int
	closed        bool

	metrics *poolMetrics
}

// New constructs a pool and starts MinThreads baseline workers. name labels
// the pool's Prometheus series and should be stable and low-cardinality
// (e.g. "default", "blocking").
func New(name string, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:   cfg,
		queue: newJobQueue(),
		name:  name,
	}
	p.metrics = newPoolMetrics(name, p)
	for i := 0; i < cfg.MinThreads; i++ {
		p.spawn()
	}
	return p
}

// Submit attempts to admit job without blocking the caller. It returns
// Rejected once queue length plus active workers would exceed MaxThreads.
func (p *Pool) Submit(job func()) Result {
	delivered, admitted := p.queue.tryPush(job, func(queueLen int) bool {
		p.mu.Lock()
		ok := !p.closed && queueLen+p.activeThreads < p.cfg.MaxThreads
		p.mu.Unlock()
		return ok
	})
	if !admitted {
		p.metrics.rejected.Inc()
		return Rejected
	}
	if !delivered {
		p.maybeSpawn()
	}
	return Accepted
}

// maybeSpawn starts a new worker when the queue is deeper than the number
// of workers already waiting for a job, provided MaxThreads allows it.
func (p *Pool) maybeSpawn() {
	idle := p.queue.WaiterCount()
	qlen := p.queue.Len()

	p.mu.Lock()
	shouldSpawn := qlen > idle && p.totalThreads < p.cfg.MaxThreads
	p.mu.Unlock()

	if shouldSpawn {
		p.spawn()
	}
}

func (p *Pool) spawn() {
	p.mu.Lock()
	p.totalThreads++
	total, active := p.totalThreads, p.activeThreads
	p.mu.Unlock()
	p.metrics.refresh(Stats{TotalThreads: total, ActiveThreads: active, QueueLength: p.queue.Len(), MaxThreads: p.cfg.MaxThreads})
	go p.workerLoop()
}

func (p *Pool) workerLoop() {
	deadline := time.Now().Add(p.cfg.IdleTimeout)
	for {
		job, ok := p.queue.popUntil(deadline)
		if ok {
			p.beginJob()
			p.runJob(job)
			p.endJob()
			deadline = time.Now().Add(p.cfg.IdleTimeout)
			continue
		}
		if p.tryRetire() {
			return
		}
		deadline = time.Now().Add(p.cfg.IdleTimeout)
	}
}

func (p *Pool) beginJob() {
	p.mu.Lock()
	p.activeThreads++
	total, active := p.totalThreads, p.activeThreads
	p.mu.Unlock()
	p.refreshMetrics(total, active)
}

func (p *Pool) endJob() {
	p.mu.Lock()
	p.activeThreads--
	total, active := p.totalThreads, p.activeThreads
	p.mu.Unlock()
	p.refreshMetrics(total, active)
}

// tryRetire decrements totalThreads and signals the caller to exit only if
// doing so would not drop the pool below MinThreads.
func (p *Pool) tryRetire() bool {
	p.mu.Lock()
	retired := false
	if p.totalThreads > p.cfg.MinThreads {
		p.totalThreads--
		retired = true
	}
	total, active := p.totalThreads, p.activeThreads
	p.mu.Unlock()
	if retired {
		p.refreshMetrics(total, active)
	}
	return retired
}

// refreshMetrics reads queue length without p.mu held -- p.mu and the
// queue's own mutex are never meant to nest in the same order twice, so
// this must always be called after p.mu has been released.
func (p *Pool) refreshMetrics(total, active int) {
	p.metrics.refresh(Stats{
		TotalThreads:  total,
		ActiveThreads: active,
		QueueLength:   p.queue.Len(),
		MaxThreads:    p.cfg.MaxThreads,
	})
}

// runJob executes job under a panic boundary. Panics are recovered and
// counted, not propagated -- the dispatch layer that queued the job is
// responsible for having already logged the panicking request.
func (p *Pool) runJob(job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.jobPanics.Inc()
		}
	}()
	job()
}

// Stats is a point-in-time snapshot of pool occupancy, reported by the
// worker-pool stats diagnostic.
type Stats struct {
	TotalThreads  int
	ActiveThreads int
	QueueLength   int
	MaxThreads    int
}

func (p *Pool) Stat() Stats {
	p.mu.Lock()
	total, active := p.totalThreads, p.activeThreads
	p.mu.Unlock()
	return Stats{
		TotalThreads:  total,
		ActiveThreads: active,
		QueueLength:   p.queue.Len(),
		MaxThreads:    p.cfg.MaxThreads,
	}
}

// Close marks the pool as no longer accepting new jobs. Existing workers
// drain their queue and idle out naturally; Close does not block.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
