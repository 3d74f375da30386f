// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerLatestSnapshotWins(t *testing.T) {
	p := NewPoller(nil, time.Second, true)

	p.publish(Snapshot{Records: []ServiceRecord{{Name: "stale"}}})
	p.publish(Snapshot{Records: []ServiceRecord{{Name: "fresh"}}})

	got := <-p.Snapshots()
	require.Len(t, got.Records, 1)
	assert.Equal(t, "fresh", got.Records[0].Name)

	select {
	case s := <-p.Snapshots():
		t.Fatalf("unexpected queued snapshot: %+v", s)
	default:
	}
}

func TestPollerToggleIncludeAll(t *testing.T) {
	p := NewPoller(nil, time.Second, false)

	assert.False(t, p.IncludeAll())
	assert.True(t, p.ToggleIncludeAll())
	assert.True(t, p.IncludeAll())
	assert.False(t, p.ToggleIncludeAll())
}

func TestPollerPollsUntilCancelled(t *testing.T) {
	source := &fakeSource{
		workloads: []WorkloadRow{{Name: "svca", Image: "imgx"}},
		pods:      []PodRow{{Name: "svca", Phase: "Running"}},
	}
	p := NewPoller(NewAggregator(source), 10*time.Millisecond, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	// The first poll runs immediately; a second one follows on the ticker.
	for i := 0; i < 2; i++ {
		select {
		case s := <-p.Snapshots():
			require.NoError(t, s.Err)
			require.Len(t, s.Records, 1)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPollerPublishesDomainErrors(t *testing.T) {
	source := &fakeSource{
		workloads: []WorkloadRow{{Name: "svca", Image: "imgx"}},
	}
	p := NewPoller(NewAggregator(source), 10*time.Millisecond, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	select {
	case s := <-p.Snapshots():
		assert.ErrorIs(t, s.Err, ErrNoRunningServices)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}
