// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	return New(t.Name(), cfg)
}

func TestPool_SubmitRunsJob(t *testing.T) {
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 2, IdleTimeout: 50 * time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	res := p.Submit(func() {
		ran = true
		wg.Done()
	})
	require.Equal(t, Accepted, res)
	wg.Wait()
	assert.True(t, ran)
}

func TestPool_AdmissionBound(t *testing.T) {
	// With MaxThreads=2, at most 2 jobs (queued + active) may be accepted
	// at any moment; submitting a third while the first two are blocked
	// must be rejected.
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 2, IdleTimeout: time.Second})

	block := make(chan struct{})
	started := make(chan struct{}, 2)

	res1 := p.Submit(func() {
		started <- struct{}{}
		<-block
	})
	require.Equal(t, Accepted, res1)

	res2 := p.Submit(func() {
		started <- struct{}{}
		<-block
	})
	require.Equal(t, Accepted, res2)

	<-started
	<-started

	res3 := p.Submit(func() {})
	assert.Equal(t, Rejected, res3)

	close(block)
}

func TestPool_RejectedJobNeverRuns(t *testing.T) {
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 1, IdleTimeout: time.Second})

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	require.Equal(t, Accepted, p.Submit(func() {
		started <- struct{}{}
		<-block
	}))
	<-started

	var ranRejected int32
	res := p.Submit(func() { atomic.AddInt32(&ranRejected, 1) })
	assert.Equal(t, Rejected, res)

	close(block)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ranRejected))
}

func TestPool_GrowsBeyondMinThreads(t *testing.T) {
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 4, IdleTimeout: time.Second})

	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)
	for i := 0; i < 3; i++ {
		res := p.Submit(func() {
			started.Done()
			<-block
		})
		require.Equal(t, Accepted, res)
	}

	started.Wait()
	stat := p.Stat()
	assert.GreaterOrEqual(t, stat.TotalThreads, 3)
	assert.LessOrEqual(t, stat.TotalThreads, 4)
	close(block)
}

func TestPool_RetiresIdleWorkersAboveMin(t *testing.T) {
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 4, IdleTimeout: 10 * time.Millisecond})

	block := make(chan struct{})
	var started sync.WaitGroup
	started.Add(3)
	for i := 0; i < 3; i++ {
		require.Equal(t, Accepted, p.Submit(func() {
			started.Done()
			<-block
		}))
	}
	started.Wait()
	close(block)

	require.Eventually(t, func() bool {
		return p.Stat().TotalThreads == 1
	}, time.Second, 5*time.Millisecond, "extra workers should retire back to MinThreads")
}

func TestPool_PanicIsRecovered(t *testing.T) {
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 1, IdleTimeout: time.Second})

	var wg sync.WaitGroup
	wg.Add(1)
	res := p.Submit(func() {
		defer wg.Done()
		panic("boom")
	})
	require.Equal(t, Accepted, res)
	wg.Wait()

	// The pool must still accept and run subsequent jobs after recovering
	// from a panicking job.
	var wg2 sync.WaitGroup
	wg2.Add(1)
	ran := false
	require.Equal(t, Accepted, p.Submit(func() {
		ran = true
		wg2.Done()
	}))
	wg2.Wait()
	assert.True(t, ran)
}

func TestPool_QueuedJobsAllEventuallyRun(t *testing.T) {
	// With MaxThreads well above MinThreads, jobs submitted while the sole
	// baseline worker is busy queue up rather than get rejected, and every
	// one of them eventually runs (possibly on additionally spawned
	// workers) once the backlog clears.
	p := newTestPool(t, Config{MinThreads: 1, MaxThreads: 8, IdleTimeout: time.Second})

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	require.Equal(t, Accepted, p.Submit(func() {
		started <- struct{}{}
		<-block
	}))
	<-started

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.Equal(t, Accepted, p.Submit(func() {
			atomic.AddInt32(&ran, 1)
			wg.Done()
		}))
	}
	close(block)
	wg.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
}
