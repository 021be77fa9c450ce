// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/palantir/witchcraft-go-server/internal/metrics"
)

// ErrRejected is returned by BreakerPool.Submit both when the underlying
// pool rejects a job and when the breaker itself is open; callers should
// treat either as "answer with service-unavailable now" without caring
// which one fired.
var ErrRejected = errors.New("workerpool: rejected")

// BreakerConfig tunes the circuit breaker guarding Submit. It mirrors the
// shape of a circuit breaker used elsewhere in the surrounding codebase
// for outbound calls, retargeted here at the pool's own admission path:
// once rejections dominate (the pool is saturated for sustained periods,
// not just a momentary burst), the breaker opens and fails fast instead
// of letting every caller pay the cost of discovering saturation itself.
type BreakerConfig struct {
	// MaxRequests is how many calls are allowed through in the half-open
	// probe state before the breaker decides whether to close or reopen.
	MaxRequests uint32
	// Interval is how often the closed-state failure counts reset to
	// zero; a zero value never resets them until the breaker trips.
	Interval time.Duration
	// Timeout is how long the breaker stays open before allowing a
	// half-open probe.
	Timeout time.Duration
	// FailureThreshold is the count of consecutive rejections that trips
	// the breaker open.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns defaults suited to a pool of moderate size:
// five consecutive rejections (a real, sustained storm rather than one
// unlucky burst) trips the breaker for ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerPool wraps a Pool with a circuit breaker around Submit. While the
// breaker is open, Submit fails immediately with ErrRejected without
// touching the underlying pool's queue at all, shedding load before it
// reaches the contended mutex and queue that Submit would otherwise pay
// for on every call.
type BreakerPool struct {
	pool    *Pool
	breaker *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerPool constructs a BreakerPool around an existing Pool. name
// labels the breaker's Prometheus series and should match the pool's own
// name.
func NewBreakerPool(name string, pool *Pool, cfg BreakerConfig) *BreakerPool {
	bp := &BreakerPool{pool: pool}
	bp.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.PoolBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
	metrics.PoolBreakerState.WithLabelValues(name).Set(breakerStateValue(gobreaker.StateClosed))
	return bp
}

// Submit runs job through the pool if the breaker is closed (or
// half-open and probing); a Rejected outcome from the pool counts as a
// breaker failure. Returns ErrRejected if either the breaker is open or
// the pool rejected the job.
func (bp *BreakerPool) Submit(job func()) error {
	_, err := bp.breaker.Execute(func() (interface{}, error) {
		if bp.pool.Submit(job) == Rejected {
			return nil, ErrRejected
		}
		return nil, nil
	})
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	metrics.PoolBreakerRequests.WithLabelValues(bp.breaker.Name(), result).Inc()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrRejected
		}
		return err
	}
	return nil
}

// State reports the breaker's current state, for diagnostics.
func (bp *BreakerPool) State() string {
	return bp.breaker.State().String()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
