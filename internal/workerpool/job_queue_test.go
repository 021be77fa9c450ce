// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAdmit(int) bool { return true }

func TestJobQueue_DirectHandoffToWaiter(t *testing.T) {
	q := newJobQueue()

	type result struct {
		job func()
		ok  bool
	}
	got := make(chan result, 1)
	go func() {
		job, ok := q.popUntil(time.Now().Add(time.Second))
		got <- result{job, ok}
	}()

	require.Eventually(t, func() bool { return q.WaiterCount() == 1 }, time.Second, time.Millisecond)

	ran := false
	delivered, admitted := q.tryPush(func() { ran = true }, alwaysAdmit)
	require.True(t, admitted)
	require.True(t, delivered)

	r := <-got
	require.True(t, r.ok)
	r.job()
	assert.True(t, ran)
}

func TestJobQueue_LIFOWakeupOrder(t *testing.T) {
	q := newJobQueue()

	woken := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			job, ok := q.popUntil(time.Now().Add(2 * time.Second))
			require.True(t, ok)
			job()
		}()
		// Record wakeup order via a closure the first push/pop pairing
		// captures; synchronize registration order with a short poll so
		// waiters register in a known sequence (0, 1, 2).
		require.Eventually(t, func() bool { return q.WaiterCount() == i+1 }, time.Second, time.Millisecond)
	}

	// Three waiters are parked, registered in order 0, 1, 2 -- waiter 2 is
	// at the head of the list (most recently added) and must be the first
	// woken.
	for want := 2; want >= 0; want-- {
		id := want
		delivered, admitted := q.tryPush(func() { woken <- id }, alwaysAdmit)
		require.True(t, admitted)
		require.True(t, delivered)
		got := <-woken
		assert.Equal(t, want, got, "expected LIFO wakeup order")
	}
}

func TestJobQueue_QueuesWhenNoWaiter(t *testing.T) {
	q := newJobQueue()

	ran := false
	delivered, admitted := q.tryPush(func() { ran = true }, alwaysAdmit)
	require.True(t, admitted)
	require.False(t, delivered, "no waiter registered, job should queue")
	assert.Equal(t, 1, q.Len())

	job, ok := q.popUntil(time.Now().Add(time.Second))
	require.True(t, ok)
	job()
	assert.True(t, ran)
	assert.Equal(t, 0, q.Len())
}

func TestJobQueue_AdmitRejection(t *testing.T) {
	q := newJobQueue()
	delivered, admitted := q.tryPush(func() {}, func(int) bool { return false })
	assert.False(t, admitted)
	assert.False(t, delivered)
	assert.Equal(t, 0, q.Len())
}

func TestJobQueue_TimeoutUnlinksWaiter(t *testing.T) {
	q := newJobQueue()
	_, ok := q.popUntil(time.Now().Add(20 * time.Millisecond))
	assert.False(t, ok)
	assert.Equal(t, 0, q.WaiterCount())
}

func TestJobQueue_RaceBetweenTimeoutAndDelivery(t *testing.T) {
	// Regression guard for the select-readiness race: a job handed to a
	// waiter at nearly the same instant its deadline elapses must never be
	// lost, even though Go's select does not prefer the non-timer case.
	for i := 0; i < 50; i++ {
		q := newJobQueue()
		deadline := time.Now().Add(2 * time.Millisecond)

		type result struct {
			ok bool
		}
		got := make(chan result, 1)
		go func() {
			_, ok := q.popUntil(deadline)
			got <- result{ok}
		}()

		require.Eventually(t, func() bool { return q.WaiterCount() == 1 }, time.Second, time.Microsecond*50)
		delivered, admitted := q.tryPush(func() {}, alwaysAdmit)
		require.True(t, admitted)

		r := <-got
		if delivered {
			assert.True(t, r.ok, "job delivered to waiter must be observed by it")
		}
	}
}
