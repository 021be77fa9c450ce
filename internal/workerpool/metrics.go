// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeGaugeVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "active",
		Help:      "Number of workers currently executing a job.",
	}, []string{"pool"})

	totalGaugeVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "total",
		Help:      "Number of live worker goroutines, executing or idle.",
	}, []string{"pool"})

	maxGaugeVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "max_threads",
		Help:      "Configured upper bound on queue length plus active workers.",
	}, []string{"pool"})

	queueLenGaugeVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "queue_length",
		Help:      "Jobs queued but not yet claimed by a worker.",
	}, []string{"pool"})

	rejectedCounterVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "rejected_total",
		Help:      "Jobs rejected because the pool was saturated.",
	}, []string{"pool"})

	jobPanicsCounterVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "witchcraft",
		Subsystem: "worker_pool",
		Name:      "job_panics_total",
		Help:      "Jobs that panicked during execution and were recovered.",
	}, []string{"pool"})
)

// poolMetrics holds the label-bound series for a single named pool.
type poolMetrics struct {
	active      prometheus.Gauge
	total       prometheus.Gauge
	max         prometheus.Gauge
	queueLen    prometheus.Gauge
	rejected    prometheus.Counter
	jobPanics   prometheus.Counter
}

func newPoolMetrics(name string, p *Pool) *poolMetrics {
	m := &poolMetrics{
		active:    activeGaugeVec.WithLabelValues(name),
		total:     totalGaugeVec.WithLabelValues(name),
		max:       maxGaugeVec.WithLabelValues(name),
		queueLen:  queueLenGaugeVec.WithLabelValues(name),
		rejected:  rejectedCounterVec.WithLabelValues(name),
		jobPanics: jobPanicsCounterVec.WithLabelValues(name),
	}
	m.max.Set(float64(p.cfg.MaxThreads))
	return m
}

// refresh pushes the pool's current occupancy to its gauges. Called after
// every change to totalThreads or activeThreads, sampling the queue length
// at the same moment, so a job Submit queues shows up at the next such
// call; worker pools are low-churn enough that this is cheaper than a
// polling goroutine.
func (m *poolMetrics) refresh(s Stats) {
	m.active.Set(float64(s.ActiveThreads))
	m.total.Set(float64(s.TotalThreads))
	m.queueLen.Set(float64(s.QueueLength))
}
