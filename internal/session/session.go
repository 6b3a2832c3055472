package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/airwavelab/contestwatch/internal/decoder"
	"github.com/airwavelab/contestwatch/internal/detect"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/airwavelab/contestwatch/internal/segment"
	"github.com/airwavelab/contestwatch/internal/station"
	"github.com/airwavelab/contestwatch/internal/stream"
	"github.com/airwavelab/contestwatch/internal/transcriber"
)

type State string

const (
	StateConnecting   State = "connecting"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Status is a point-in-time snapshot of one station session.
type Status struct {
	StationID   string    `json:"station_id"`
	DisplayName string    `json:"display_name"`
	State       State     `json:"state"`
	Reconnects  uint64    `json:"reconnects"`
	Segments    uint64    `json:"segments"`
	Dropped     uint64    `json:"dropped_segments"`
	StartedAt   time.Time `json:"started_at"`
}

type sessionDeps struct {
	directory   station.Directory
	decoder     decoder.Decoder
	transcriber transcriber.Transcriber
	detector    *detect.Detector
	sink        event.Sink
	metrics     *metrics.Metrics
}

type sessionConfig struct {
	reader      stream.Config
	accumulator segment.Config
	queueSize   int
	language    string
}

// Session is the per-station state machine: one reader goroutine
// accumulating chunks into segments, one pipeline goroutine running
// decode, transcription and detection. The accumulator survives
// reconnects; only an explicit stop ends the session.
type Session struct {
	station station.Station
	cfg     sessionConfig
	deps    sessionDeps

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	segCh  chan *segment.Segment

	mu         sync.Mutex
	state      State
	reconnects uint64
	segments   uint64
	dropped    uint64
	startedAt  time.Time
}

// newSession wires the cancellation context up front, so a stop
// arriving before start has launched the run goroutine still lands.
func newSession(parent context.Context, st station.Station, cfg sessionConfig, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		station: st,
		cfg:     cfg,
		deps:    deps,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		segCh:   make(chan *segment.Segment, cfg.queueSize),
		state:   StateConnecting,
	}
}

func (s *Session) start() {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.deps.sink.SessionStateChanged(event.StateChange{
		StationID:   s.station.ID,
		DisplayName: s.station.DisplayName,
		StreamURL:   s.station.StreamURL,
		State:       string(StateConnecting),
		ChangedAt:   time.Now(),
	})
	go s.run(s.ctx)
}

// stop requests cooperative shutdown; completion is observed via done.
func (s *Session) stop() {
	s.cancel()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.setState(StateStopped)

	st, ok := s.resolveStation(ctx)
	if !ok {
		return
	}

	acc := segment.NewAccumulator(st.ID, s.cfg.accumulator, nil)
	reader := stream.NewReader(st, s.cfg.reader)

	var pipelineWG sync.WaitGroup
	pipelineWG.Add(1)
	go func() {
		defer pipelineWG.Done()
		s.pipelineLoop(ctx)
	}()

	reader.Run(ctx, func(chunk stream.Chunk) {
		s.deps.metrics.ChunksRead.Inc()
		s.deps.metrics.BytesRead.Add(float64(len(chunk.Bytes)))
		if seg := acc.Add(chunk.Bytes); seg != nil {
			s.enqueue(seg)
		}
	}, func(connected bool, err error) {
		if connected {
			s.setState(StateStreaming)
			return
		}
		s.mu.Lock()
		s.reconnects++
		s.mu.Unlock()
		s.deps.metrics.Reconnects.Inc()
		slog.Warn("stream attempt failed; reconnecting", "station_id", s.station.ID, "error", err)
		s.setState(StateReconnecting)
	})

	close(s.segCh)
	pipelineWG.Wait()
}

// resolveStation fills in a missing stream URL via the directory. A
// lookup failure is a configuration error: reported once, no retry.
func (s *Session) resolveStation(ctx context.Context) (station.Station, bool) {
	st := s.station
	if st.StreamURL != "" {
		return st, true
	}
	url, err := s.deps.directory.ResolveStreamURL(ctx, st.ID)
	if err != nil || url == "" {
		slog.Error("failed to resolve stream url; stopping session", "station_id", st.ID, "error", err)
		return st, false
	}
	st.StreamURL = url
	return st, true
}

// enqueue hands a segment to the pipeline without ever blocking the
// reader. When the queue is full the oldest queued segment is dropped.
func (s *Session) enqueue(seg *segment.Segment) {
	s.mu.Lock()
	s.segments++
	s.mu.Unlock()
	s.deps.metrics.SegmentsProduced.Inc()
	s.deps.metrics.SegmentDuration.Observe(seg.ApproxDuration.Seconds())

	select {
	case s.segCh <- seg:
		return
	default:
	}
	select {
	case old := <-s.segCh:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.deps.metrics.SegmentsDropped.Inc()
		slog.Warn("segment queue full; dropped oldest segment",
			"station_id", s.station.ID,
			"dropped_sequence", old.SequenceNumber,
			"incoming_sequence", seg.SequenceNumber)
	default:
	}
	select {
	case s.segCh <- seg:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.deps.metrics.SegmentsDropped.Inc()
		slog.Warn("segment queue full; dropped incoming segment",
			"station_id", s.station.ID,
			"dropped_sequence", seg.SequenceNumber)
	}
}

// pipelineLoop processes segments in sequence order. Per-segment
// failures are contained: the next segment is processed normally.
func (s *Session) pipelineLoop(ctx context.Context) {
	for seg := range s.segCh {
		if ctx.Err() != nil {
			continue
		}
		s.processSegment(ctx, seg)
	}
}

func (s *Session) processSegment(ctx context.Context, seg *segment.Segment) {
	pcm, err := s.deps.decoder.Decode(ctx, seg)
	if err != nil {
		s.deps.metrics.DecodeFailures.Inc()
		slog.Warn("segment decode failed; dropping segment",
			"station_id", seg.StationID,
			"sequence", seg.SequenceNumber,
			"error", err)
		return
	}

	start := time.Now()
	text, err := s.deps.transcriber.Transcribe(ctx, pcm, s.cfg.language)
	s.deps.metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.deps.metrics.TranscriptionFailures.Inc()
		slog.Warn("segment transcription failed; dropping segment",
			"station_id", seg.StationID,
			"sequence", seg.SequenceNumber,
			"error", err)
		return
	}
	text = normalizeTranscript(text)
	if text == "" {
		s.deps.metrics.TranscriptionFailures.Inc()
		slog.Warn("segment transcription empty; dropping segment",
			"station_id", seg.StationID,
			"sequence", seg.SequenceNumber)
		return
	}
	s.deps.metrics.TranscriptionSuccesses.Inc()

	if ctx.Err() != nil {
		return
	}
	s.deps.sink.TranscriptProduced(event.TranscriptResult{
		StationID:      seg.StationID,
		SequenceNumber: seg.SequenceNumber,
		Text:           text,
		ProducedAt:     time.Now(),
	})

	match, ok := s.deps.detector.Detect(text)
	if !ok {
		return
	}
	s.deps.metrics.MatchesDetected.Inc()
	slog.Info("contest keyword detected",
		"station_id", seg.StationID,
		"sequence", seg.SequenceNumber,
		"keyword", match.Keyword)
	s.deps.sink.ContestDetected(event.ContestMatch{
		StationID:      seg.StationID,
		SequenceNumber: seg.SequenceNumber,
		MatchedKeyword: match.Keyword,
		Text:           text,
		DetectedAt:     time.Now(),
	})
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	if s.state == next || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.state = next
	reconnects := s.reconnects
	s.mu.Unlock()

	slog.Info("session state changed", "station_id", s.station.ID, "state", string(next))
	s.deps.sink.SessionStateChanged(event.StateChange{
		StationID:   s.station.ID,
		DisplayName: s.station.DisplayName,
		StreamURL:   s.station.StreamURL,
		State:       string(next),
		Reconnects:  reconnects,
		ChangedAt:   time.Now(),
	})
}

func (s *Session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		StationID:   s.station.ID,
		DisplayName: s.station.DisplayName,
		State:       s.state,
		Reconnects:  s.reconnects,
		Segments:    s.segments,
		Dropped:     s.dropped,
		StartedAt:   s.startedAt,
	}
}

func normalizeTranscript(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
