package sink

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
)

type kind int

const (
	kindTranscript kind = iota
	kindMatch
	kindState
)

type envelope struct {
	kind       kind
	transcript event.TranscriptResult
	match      event.ContestMatch
	state      event.StateChange
}

// Dispatcher decouples the station pipelines from the consumers of
// their output. Events are handed off to a bounded queue and fanned
// out to every target on a single worker goroutine; a full queue drops
// the event rather than stalling any station.
type Dispatcher struct {
	targets []event.Sink
	metrics *metrics.Metrics

	queue   chan envelope
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

func NewDispatcher(queueSize int, m *metrics.Metrics, targets ...event.Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		targets: targets,
		metrics: m,
		queue:   make(chan envelope, queueSize),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go d.loop(ctx)
}

// Stop signals the worker to drain the queue and exit. The queue
// itself is never closed: stragglers may still emit events after the
// manager's bounded join timeout gives up on them, and those late
// events must be dropped, not panic the process.
func (d *Dispatcher) Stop() <-chan struct{} {
	d.once.Do(func() {
		d.stopped.Store(true)
		close(d.quit)
	})
	return d.done
}

func (d *Dispatcher) TranscriptProduced(result event.TranscriptResult) {
	d.offer(envelope{kind: kindTranscript, transcript: result})
}

func (d *Dispatcher) ContestDetected(match event.ContestMatch) {
	d.offer(envelope{kind: kindMatch, match: match})
}

func (d *Dispatcher) SessionStateChanged(change event.StateChange) {
	d.offer(envelope{kind: kindState, state: change})
}

func (d *Dispatcher) offer(env envelope) {
	if d.stopped.Load() {
		d.metrics.SinkEventsDropped.Inc()
		slog.Warn("dispatcher stopped; dropping late event", "kind", env.kind)
		return
	}
	select {
	case d.queue <- env:
	default:
		d.metrics.SinkEventsDropped.Inc()
		slog.Warn("event queue full; dropping event", "kind", env.kind)
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case env := <-d.queue:
			if ctx.Err() == nil {
				d.fanOut(env)
			}
		case <-d.quit:
			d.drain(ctx)
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case env := <-d.queue:
			if ctx.Err() == nil {
				d.fanOut(env)
			}
		default:
			return
		}
	}
}

func (d *Dispatcher) fanOut(env envelope) {
	for _, t := range d.targets {
		switch env.kind {
		case kindTranscript:
			t.TranscriptProduced(env.transcript)
		case kindMatch:
			t.ContestDetected(env.match)
		case kindState:
			t.SessionStateChanged(env.state)
		}
	}
}
