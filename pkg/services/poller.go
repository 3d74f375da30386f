// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"sync/atomic"
	"time"
)

// Snapshot is the outcome of one poll: either a complete record set or the
// error the aggregator returned. Never a half-joined table.
type Snapshot struct {
	Records []ServiceRecord
	Err     error
	Taken   time.Time
}

// Poller drives the monitor refresh loop. It owns the polling cadence on a
// dedicated goroutine and publishes completed snapshots into a single-slot,
// latest-value-wins channel: if a new snapshot arrives before the consumer
// takes the previous one, the previous one is discarded rather than queued,
// so the display stays current instead of catching up on stale history.
type Poller struct {
	aggregator *Aggregator
	interval   time.Duration
	includeAll atomic.Bool
	snapshots  chan Snapshot
}

// NewPoller creates a poller over an aggregator. includeAll sets the initial
// filter state; it can be toggled while polling runs.
func NewPoller(aggregator *Aggregator, interval time.Duration, includeAll bool) *Poller {
	p := &Poller{
		aggregator: aggregator,
		interval:   interval,
		snapshots:  make(chan Snapshot, 1),
	}
	p.includeAll.Store(includeAll)
	return p
}

// Snapshots returns the channel completed polls are published on.
func (p *Poller) Snapshots() <-chan Snapshot {
	return p.snapshots
}

// IncludeAll reports the current filter state.
func (p *Poller) IncludeAll() bool {
	return p.includeAll.Load()
}

// ToggleIncludeAll flips the running-only filter and returns the new state.
// It takes effect on the next poll.
func (p *Poller) ToggleIncludeAll() bool {
	for {
		old := p.includeAll.Load()
		if p.includeAll.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Start polls until ctx is cancelled. The first poll runs immediately.
// Cancellation stops further polls from being scheduled; an in-flight
// aggregation is abandoned through its context.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	records, err := p.aggregator.Aggregate(ctx, p.includeAll.Load())
	if ctx.Err() != nil {
		return
	}
	p.publish(Snapshot{Records: records, Err: err, Taken: time.Now()})
}

// publish replaces any unconsumed snapshot with the new one.
func (p *Poller) publish(s Snapshot) {
	for {
		select {
		case p.snapshots <- s:
			return
		default:
		}
		select {
		case <-p.snapshots:
		default:
		}
	}
}
