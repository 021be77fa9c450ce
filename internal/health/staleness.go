// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"fmt"
	"time"
)

// StalenessCheckType is the synthetic check's reported type.
const StalenessCheckType = "HEALTH_CHECK_COMPUTATION_STALENESS"

// stalenessMultiplier bounds how many evaluation intervals a check's last
// result may lag behind before the staleness check flags it -- a single
// missed tick due to scheduling jitter shouldn't page anyone.
const stalenessMultiplier = 3

// StalenessCheck reports StateError if any registered check's last result
// is older than its own evaluation interval would allow, which would
// otherwise surface as that check silently reporting a frozen "healthy"
// forever after its evaluator goroutine stops running.
type StalenessCheck struct {
	registry  *Registry
	intervals map[string]time.Duration
	clock     func() time.Time
}

// NewStalenessCheck constructs a StalenessCheck. intervals should contain
// every other registered check's evaluation interval, keyed by Check.Type().
func NewStalenessCheck(registry *Registry, intervals map[string]time.Duration) *StalenessCheck {
	return &StalenessCheck{registry: registry, intervals: intervals, clock: time.Now}
}

func (c *StalenessCheck) Type() string { return StalenessCheckType }

func (c *StalenessCheck) Evaluate() Result {
	now := c.clock()
	var stale []string

	for checkType, interval := range c.intervals {
		res, ok := c.registry.Get(checkType)
		if !ok {
			// No result in the registry yet: skipped, never counted
			// as stale.
			continue
		}
		budget := interval * stalenessMultiplier
		if now.Sub(res.EvaluatedAt) > budget {
			stale = append(stale, checkType)
		}
	}

	if len(stale) == 0 {
		return Result{State: StateHealthy}
	}
	return Result{
		State:   StateError,
		Message: fmt.Sprintf("health checks have not reported recently: %v", stale),
		Params:  map[string]interface{}{"staleChecks": stale},
	}
}
