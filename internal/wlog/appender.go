// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package wlog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/palantir/witchcraft-go-server/internal/logging"
)

// DefaultQueueCapacity bounds the appender's internal buffer: past this
// many unwritten records, a producer would rather drop a log line than
// block the request goroutine that's trying to emit it.
const DefaultQueueCapacity = 10000

// Sink is the durable destination an Appender drains into. The rolling
// file sink in rollingfile.go is the production implementation; tests
// substitute an in-memory one.
type Sink interface {
	Write(line []byte) error
	Close() error
}

// Appender is a bounded, async, single-writer fan-in for one log wire
// format. Record serializes and enqueues without blocking; a background
// goroutine drains the queue into the Sink. When the queue is full,
// Record drops the record and increments Dropped rather than applying
// backpressure to the caller -- logging must never be capable of slowing
// down or deadlocking request handling.
type Appender struct {
	sink    Sink
	queue   chan []byte
	dropped atomic.Int64
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewAppender starts the background drain goroutine. capacity <= 0 uses
// DefaultQueueCapacity.
func NewAppender(sink Sink, capacity int) *Appender {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	a := &Appender{
		sink:  sink,
		queue: make(chan []byte, capacity),
		done:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.drain()
	return a
}

// Record serializes v to JSON and enqueues it for writing. It never
// blocks: a full queue drops the record.
func (a *Appender) Record(v interface{}) {
	line, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("wlog: failed to marshal log record")
		return
	}
	line = append(line, '\n')

	select {
	case a.queue <- line:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of records dropped so far due to a full
// queue, for the logging.queue health/metrics surface.
func (a *Appender) Dropped() int64 {
	return a.dropped.Load()
}

// QueueLength returns the number of records currently buffered.
func (a *Appender) QueueLength() int {
	return len(a.queue)
}

func (a *Appender) drain() {
	defer a.wg.Done()
	for {
		select {
		case line := <-a.queue:
			if err := a.sink.Write(line); err != nil {
				logging.Error().Err(err).Msg("wlog: failed to write log record")
			}
		case <-a.done:
			a.drainRemaining()
			return
		}
	}
}

func (a *Appender) drainRemaining() {
	for {
		select {
		case line := <-a.queue:
			if err := a.sink.Write(line); err != nil {
				logging.Error().Err(err).Msg("wlog: failed to write log record")
			}
		default:
			return
		}
	}
}

// Close stops accepting new background work, flushes whatever is already
// queued, and closes the underlying Sink. It blocks until the queue is
// drained or ctx is done, whichever comes first, and closes the Sink
// either way.
func (a *Appender) Close(ctx context.Context) error {
	close(a.done)
	waited := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
	}
	return a.sink.Close()
}
