// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package workerpool implements the fair-queue blocking worker pool used to
// execute handlers that cannot yield cooperatively.
//
// The pool maintains a FIFO queue of jobs and a LIFO stack of idle workers:
// jobs are served in submission order, but the most-recently-idle worker is
// always the one woken for the next job. That combination lets workers that
// have been cold the longest keep timing out and exiting, so the pool shrinks
// back toward MinThreads under light load instead of oscillating.
//
// Admission is non-blocking: Submit either accepts a job immediately (and
// spawns a worker if the queue is deeper than the number of idle waiters) or
// rejects it when the pool is saturated. Callers map a rejection to a 503.
package workerpool
