// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"sync"
	"time"
)

// jobQueue is the FIFO-jobs / LIFO-waiters queue described by the pool's
// design: jobs queue up in submission order, but a worker that has been
// idle longest is pushed to the *back* of the wakeup order -- the
// most-recently-registered waiter is always woken first.
//
// A naive intrusive linked list of stack-allocated nodes (as a single-
// threaded runtime could do with raw pointer splicing) isn't safe in Go, so
// waiters are represented by heap-allocated nodes holding a buffered
// channel. The mutex still protects a genuine doubly linked list -- head
// equals the most-recently-added waiter, exactly mirroring the invariant in
// spec.md -- but delivery itself happens over the channel rather than by
// mutating shared memory the waiter's goroutine might be touching
// concurrently.
type jobQueue struct {
	mu   sync.Mutex
	jobs []func()
	head *waiterNode
}

type waiterNode struct {
	ch      chan func()
	removed bool
	prev    *waiterNode
	next    *waiterNode
}

func newJobQueue() *jobQueue {
	return &jobQueue{}
}

// tryPush admits job only if admit(currentQueueLen) returns true, evaluated
// atomically with the push itself so a caller can enforce
// "queue.len() + active <= max_threads" without a second race window. If a
// waiter is registered, the job bypasses the queue entirely and is handed
// straight to the most-recently-added waiter (delivered=true); otherwise it
// is appended to the tail of the FIFO slice (delivered=false).
func (q *jobQueue) tryPush(job func(), admit func(queueLen int) bool) (delivered, admitted bool) {
	q.mu.Lock()
	if !admit(len(q.jobs)) {
		q.mu.Unlock()
		return false, false
	}

	if w := q.head; w != nil {
		q.head = w.next
		if q.head != nil {
			q.head.prev = nil
		}
		w.prev, w.next = nil, nil
		w.removed = true
		q.mu.Unlock()
		w.ch <- job
		return true, true
	}

	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return false, true
}

// popUntil removes and returns the head of the FIFO job slice if one is
// available. Otherwise it registers the calling goroutine as a waiter --
// spliced at the head of the waiter list, so it is the next one woken -- and
// blocks until a job arrives or deadline passes.
func (q *jobQueue) popUntil(deadline time.Time) (job func(), ok bool) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		job = q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return job, true
	}

	w := &waiterNode{ch: make(chan func(), 1)}
	w.next = q.head
	if q.head != nil {
		q.head.prev = w
	}
	q.head = w
	q.mu.Unlock()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case job := <-w.ch:
		return job, true
	case <-timer.C:
		return q.resolveTimeout(w)
	}
}

// resolveTimeout decides what a waiter that has hit its deadline should do.
// A job may have been handed to it in the instant between the timer firing
// and this goroutine acquiring the queue mutex (select does not guarantee
// the non-timer case is preferred when both are ready), so it first takes a
// non-blocking peek at the channel before consulting removed-from-list
// state under the shared mutex.
func (q *jobQueue) resolveTimeout(w *waiterNode) (func(), bool) {
	select {
	case job := <-w.ch:
		return job, true
	default:
	}

	q.mu.Lock()
	if !w.removed {
		q.unlink(w)
		q.mu.Unlock()
		return nil, false
	}
	q.mu.Unlock()

	// tryPush has already claimed this waiter and is mid-send (or has sent);
	// the channel is guaranteed a value is coming.
	job := <-w.ch
	return job, true
}

// unlink must be called with q.mu held.
func (q *jobQueue) unlink(w *waiterNode) {
	if w.prev != nil {
		w.prev.next = w.next
	} else {
		q.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	}
	w.prev, w.next = nil, nil
}

// Len returns the number of jobs currently queued (not yet claimed by a
// waiter or a direct handoff).
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// WaiterCount returns the number of workers currently parked waiting for a
// job.
func (q *jobQueue) WaiterCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for w := q.head; w != nil; w = w.next {
		n++
	}
	return n
}
