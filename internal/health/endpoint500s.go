// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"fmt"
	"sync"
	"time"
)

// Endpoint500sCheckType is this synthetic check's reported type.
const Endpoint500sCheckType = "ENDPOINT_5XX_RESPONSES"

// endpoint500sWindow is how far back the sliding window of recorded
// responses extends.
const endpoint500sWindow = 5 * time.Minute

// minSampleSize is the fewest requests the window must contain before the
// check will flag a ratio -- a single 500 out of two requests just after
// startup shouldn't trip the check.
const minSampleSize = 20

// Endpoint500sCheck reports StateWarning when the fraction of 5xx
// responses observed across all endpoints over the trailing window
// exceeds a threshold, supplementing the per-subsystem checks a service
// registers itself with a signal that something in the request path is
// failing even if no registered check notices.
type Endpoint500sCheck struct {
	mu        sync.Mutex
	samples   []endpointSample
	threshold float64
	clock     func() time.Time
}

type endpointSample struct {
	at       time.Time
	is5xx    bool
}

// NewEndpoint500sCheck constructs a check that warns once the trailing
// 5-minute 5xx ratio exceeds threshold (e.g. 0.05 for 5%).
func NewEndpoint500sCheck(threshold float64) *Endpoint500sCheck {
	return &Endpoint500sCheck{threshold: threshold, clock: time.Now}
}

// Record should be called by the request-log middleware layer for every
// completed response.
func (c *Endpoint500sCheck) Record(statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, endpointSample{at: c.clock(), is5xx: statusCode >= 500})
	c.pruneLocked()
}

func (c *Endpoint500sCheck) pruneLocked() {
	cutoff := c.clock().Add(-endpoint500sWindow)
	i := 0
	for i < len(c.samples) && c.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		c.samples = c.samples[i:]
	}
}

func (c *Endpoint500sCheck) Type() string { return Endpoint500sCheckType }

func (c *Endpoint500sCheck) Evaluate() Result {
	c.mu.Lock()
	c.pruneLocked()
	total := len(c.samples)
	var errorCount int
	for _, s := range c.samples {
		if s.is5xx {
			errorCount++
		}
	}
	c.mu.Unlock()

	if total < minSampleSize {
		return Result{State: StateHealthy}
	}

	ratio := float64(errorCount) / float64(total)
	if ratio > c.threshold {
		return Result{
			State:   StateWarning,
			Message: fmt.Sprintf("%.1f%% of responses were 5xx over the last %s", ratio*100, endpoint500sWindow),
			Params: map[string]interface{}{
				"ratio": ratio,
				"total": total,
				"5xx":   errorCount,
			},
		}
	}
	return Result{State: StateHealthy}
}
