package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/airwavelab/contestwatch/internal/detect"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/airwavelab/contestwatch/internal/segment"
	"github.com/airwavelab/contestwatch/internal/station"
	"github.com/airwavelab/contestwatch/internal/stream"
	"github.com/prometheus/client_golang/prometheus"
)

type stubDirectory struct {
	streamURL string
	err       error
}

func (d *stubDirectory) ResolveStations(ctx context.Context, criteria station.Criteria) ([]station.Station, error) {
	return nil, d.err
}

func (d *stubDirectory) ResolveStreamURL(ctx context.Context, stationID string) (string, error) {
	return d.streamURL, d.err
}

type stubDecoder struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (d *stubDecoder) Decode(ctx context.Context, seg *segment.Segment) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("decode failed")
	}
	return []byte("pcm"), nil
}

type stubTranscriber struct {
	text string
}

func (t *stubTranscriber) Transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	return t.text, nil
}

type recordingSink struct {
	mu          sync.Mutex
	transcripts []event.TranscriptResult
	matches     []event.ContestMatch
	states      []event.StateChange
}

func (s *recordingSink) TranscriptProduced(r event.TranscriptResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, r)
}

func (s *recordingSink) ContestDetected(m event.ContestMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, m)
}

func (s *recordingSink) SessionStateChanged(c event.StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, c)
}

func (s *recordingSink) transcriptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcripts)
}

func (s *recordingSink) matchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

func (s *recordingSink) sawState(state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.states {
		if c.State == string(state) {
			return true
		}
	}
	return false
}

// streamServer keeps writing audio bytes until the client disconnects.
func streamServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer is not a flusher")
		}
		chunk := make([]byte, 64)
		for {
			select {
			case <-r.Context().Done():
				return
			default:
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testSessionConfig() sessionConfig {
	return sessionConfig{
		reader: stream.Config{
			ChunkBytes:     64,
			ConnectTimeout: 2 * time.Second,
			ReadTimeout:    2 * time.Second,
			Backoff:        10 * time.Millisecond,
		},
		accumulator: segment.Config{
			TargetBytes: 128,
			MaxWait:     time.Minute,
		},
		queueSize: 8,
		language:  "en-US",
	}
}

func testDeps(sink event.Sink, dec *stubDecoder, text string) sessionDeps {
	return sessionDeps{
		directory:   &stubDirectory{},
		decoder:     dec,
		transcriber: &stubTranscriber{text: text},
		detector:    detect.NewDetector(detect.DefaultRules()),
		sink:        sink,
		metrics:     metrics.New(prometheus.NewRegistry()),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSession_TranscribesAndDetects(t *testing.T) {
	server := streamServer(t)
	sink := &recordingSink{}
	dec := &stubDecoder{}

	s := newSession(
		context.Background(),
		station.Station{ID: "kxyz", StreamURL: server.URL},
		testSessionConfig(),
		testDeps(sink, dec, "you could win big, call now"),
	)
	s.start()

	waitFor(t, 5*time.Second, func() bool { return sink.matchCount() > 0 },
		"expected a contest match")

	if !sink.sawState(StateConnecting) {
		t.Fatal("expected connecting state event")
	}
	if !sink.sawState(StateStreaming) {
		t.Fatal("expected streaming state event")
	}

	sink.mu.Lock()
	match := sink.matches[0]
	sink.mu.Unlock()
	if match.StationID != "kxyz" {
		t.Fatalf("unexpected station id: %s", match.StationID)
	}
	if match.MatchedKeyword != "call now" {
		t.Fatalf("unexpected keyword: %s", match.MatchedKeyword)
	}

	s.stop()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSession_StopEmitsNoFurtherResults(t *testing.T) {
	server := streamServer(t)
	sink := &recordingSink{}

	s := newSession(
		context.Background(),
		station.Station{ID: "kxyz", StreamURL: server.URL},
		testSessionConfig(),
		testDeps(sink, &stubDecoder{}, "just the weather and traffic"),
	)
	s.start()

	waitFor(t, 5*time.Second, func() bool { return sink.transcriptCount() > 0 },
		"expected at least one transcript")

	s.stop()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}

	if !sink.sawState(StateStopped) {
		t.Fatal("expected stopped state event")
	}
	after := sink.transcriptCount()
	time.Sleep(100 * time.Millisecond)
	if got := sink.transcriptCount(); got != after {
		t.Fatalf("results emitted after stop: before=%d after=%d", after, got)
	}
	if s.currentState() != StateStopped {
		t.Fatalf("expected stopped state, got %s", s.currentState())
	}
}

func TestSession_DecodeFailureDoesNotStopSession(t *testing.T) {
	server := streamServer(t)
	sink := &recordingSink{}
	dec := &stubDecoder{failures: 1}

	s := newSession(
		context.Background(),
		station.Station{ID: "kxyz", StreamURL: server.URL},
		testSessionConfig(),
		testDeps(sink, dec, "tune in for more music"),
	)
	s.start()

	waitFor(t, 5*time.Second, func() bool { return sink.transcriptCount() > 0 },
		"expected transcripts after a decode failure")

	dec.mu.Lock()
	calls := dec.calls
	dec.mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected decoder to be called again after failure, got %d calls", calls)
	}

	s.stop()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSession_StopImmediatelyAfterStart(t *testing.T) {
	server := streamServer(t)
	sink := &recordingSink{}

	s := newSession(
		context.Background(),
		station.Station{ID: "kxyz", StreamURL: server.URL},
		testSessionConfig(),
		testDeps(sink, &stubDecoder{}, "just the weather and traffic"),
	)
	s.start()
	s.stop()

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop when stopped right after start")
	}
	if s.currentState() != StateStopped {
		t.Fatalf("expected stopped state, got %s", s.currentState())
	}
}

func TestSession_DirectoryFailureStopsSession(t *testing.T) {
	sink := &recordingSink{}
	deps := testDeps(sink, &stubDecoder{}, "")
	deps.directory = &stubDirectory{err: errors.New("lookup failed")}

	s := newSession(
		context.Background(),
		station.Station{ID: "kxyz"},
		testSessionConfig(),
		deps,
	)
	s.start()

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop on directory failure")
	}
	if s.currentState() != StateStopped {
		t.Fatalf("expected stopped state, got %s", s.currentState())
	}
}
