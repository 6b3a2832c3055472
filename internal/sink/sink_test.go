package sink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingTarget struct {
	mu          sync.Mutex
	transcripts []event.TranscriptResult
	matches     []event.ContestMatch
	states      []event.StateChange
}

func (t *recordingTarget) TranscriptProduced(r event.TranscriptResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transcripts = append(t.transcripts, r)
}

func (t *recordingTarget) ContestDetected(m event.ContestMatch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.matches = append(t.matches, m)
}

func (t *recordingTarget) SessionStateChanged(c event.StateChange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = append(t.states, c)
}

func (t *recordingTarget) counts() (int, int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.transcripts), len(t.matches), len(t.states)
}

func TestDispatcher_FansOutToTargets(t *testing.T) {
	first := &recordingTarget{}
	second := &recordingTarget{}
	d := NewDispatcher(8, metrics.New(prometheus.NewRegistry()), first, second)
	d.Start(context.Background())

	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz", Text: "hello"})
	d.ContestDetected(event.ContestMatch{StationID: "kxyz", MatchedKeyword: "win"})
	d.SessionStateChanged(event.StateChange{StationID: "kxyz", State: "streaming"})

	select {
	case <-d.Stop():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not drain")
	}

	for _, target := range []*recordingTarget{first, second} {
		transcripts, matches, states := target.counts()
		if transcripts != 1 || matches != 1 || states != 1 {
			t.Fatalf("expected one event of each kind, got %d/%d/%d", transcripts, matches, states)
		}
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := NewDispatcher(1, m)
	// No worker started: the queue fills and overflow is dropped.

	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})
	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})
	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})

	if got := testutil.ToFloat64(m.SinkEventsDropped); got != 2 {
		t.Fatalf("expected 2 dropped events, got %v", got)
	}
}

func TestDispatcher_EventsAfterStopAreDropped(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	target := &recordingTarget{}
	d := NewDispatcher(8, m, target)
	d.Start(context.Background())

	select {
	case <-d.Stop():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	// A straggler session past the join timeout can still emit its
	// final state change. It must be dropped, never a send on a dead
	// queue.
	d.SessionStateChanged(event.StateChange{StationID: "kxyz", State: "stopped"})
	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})
	d.ContestDetected(event.ContestMatch{StationID: "kxyz"})

	if got := testutil.ToFloat64(m.SinkEventsDropped); got != 3 {
		t.Fatalf("expected 3 dropped late events, got %v", got)
	}
	transcripts, matches, states := target.counts()
	if transcripts != 0 || matches != 0 || states != 0 {
		t.Fatalf("expected no deliveries after stop, got %d/%d/%d", transcripts, matches, states)
	}
}

func TestDispatcher_StopDrainsRemainingEvents(t *testing.T) {
	target := &recordingTarget{}
	d := NewDispatcher(8, metrics.New(prometheus.NewRegistry()), target)

	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})
	d.TranscriptProduced(event.TranscriptResult{StationID: "kxyz"})

	d.Start(context.Background())
	select {
	case <-d.Stop():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not drain")
	}

	transcripts, _, _ := target.counts()
	if transcripts != 2 {
		t.Fatalf("expected queued events delivered on stop, got %d", transcripts)
	}
}
