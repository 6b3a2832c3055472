package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/decoder"
	"github.com/airwavelab/contestwatch/internal/detect"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/airwavelab/contestwatch/internal/segment"
	"github.com/airwavelab/contestwatch/internal/station"
	"github.com/airwavelab/contestwatch/internal/stream"
	"github.com/airwavelab/contestwatch/internal/transcriber"
)

var (
	ErrTooManySessions  = errors.New("maximum concurrent sessions reached")
	ErrAlreadyRunning   = errors.New("station session already running")
	ErrSessionNotFound  = errors.New("station session not found")
	ErrInvalidMaxActive = errors.New("max concurrent sessions must be positive")
)

// Manager supervises the set of active station sessions: enforces the
// concurrency cap, starts and stops sessions, and exposes state
// snapshots for the control surface. The session map and cap are the
// only state shared across goroutines; everything else is owned by the
// individual sessions.
type Manager struct {
	cfg         *config.Config
	directory   station.Directory
	decoder     decoder.Decoder
	transcriber transcriber.Transcriber
	detector    *detect.Detector
	sink        event.Sink
	metrics     *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	sessions      map[string]*Session
	maxConcurrent int
}

func NewManager(cfg *config.Config, dir station.Directory, dec decoder.Decoder, stt transcriber.Transcriber, det *detect.Detector, sink event.Sink, m *metrics.Metrics) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:           cfg,
		directory:     dir,
		decoder:       dec,
		transcriber:   stt,
		detector:      det,
		sink:          sink,
		metrics:       m,
		ctx:           ctx,
		cancel:        cancel,
		sessions:      make(map[string]*Session),
		maxConcurrent: cfg.MaxConcurrentStations,
	}
}

// StartMonitoring resolves stations from the directory and starts a
// session for each, up to the concurrency cap. Directory failure means
// no stations are available; it is surfaced, not fatal.
func (m *Manager) StartMonitoring(ctx context.Context) (int, error) {
	criteria := station.Criteria{
		Filter: m.cfg.StationFilter,
		Limit:  m.MaxConcurrent(),
	}
	stations, err := m.directory.ResolveStations(ctx, criteria)
	if err != nil {
		slog.Error("station directory lookup failed", "error", err, "filter", criteria.Filter)
		return 0, err
	}
	if len(stations) == 0 {
		slog.Warn("station directory returned no stations", "filter", criteria.Filter)
		return 0, nil
	}

	started := 0
	for _, st := range stations {
		if err := m.StartStation(st); err != nil {
			if errors.Is(err, ErrTooManySessions) {
				slog.Warn("concurrency cap reached; skipping remaining stations", "started", started, "resolved", len(stations))
				break
			}
			slog.Error("failed to start station session", "station_id", st.ID, "error", err)
			continue
		}
		started++
	}
	return started, nil
}

// StartStation starts one session. Requests beyond the cap are
// rejected, never queued.
func (m *Manager) StartStation(st station.Station) error {
	m.mu.Lock()
	if _, exists := m.sessions[st.ID]; exists {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(m.sessions) >= m.maxConcurrent {
		m.mu.Unlock()
		return ErrTooManySessions
	}
	s := newSession(m.ctx, st, m.sessionConfig(), sessionDeps{
		directory:   m.directory,
		decoder:     m.decoder,
		transcriber: m.transcriber,
		detector:    m.detector,
		sink:        m.sink,
		metrics:     m.metrics,
	})
	m.sessions[st.ID] = s
	m.mu.Unlock()

	m.metrics.SessionsStarted.Inc()
	m.metrics.ActiveSessions.Inc()
	slog.Info("station session starting", "station_id", st.ID, "display_name", st.DisplayName)

	s.start()
	go m.reapWhenDone(st.ID, s)
	return nil
}

// StopStation signals one session to stop and returns immediately;
// the session is reaped asynchronously once it joins.
func (m *Manager) StopStation(stationID string) error {
	m.mu.Lock()
	s, ok := m.sessions[stationID]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	slog.Info("station session stop requested", "station_id", stationID)
	s.stop()
	return nil
}

// StopAll signals every session to stop and returns a channel closed
// once all of them joined, each bounded by the configured join timeout
// so one unresponsive session cannot stall shutdown of the rest.
func (m *Manager) StopAll() <-chan struct{} {
	m.mu.Lock()
	active := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, s)
	}
	m.mu.Unlock()

	slog.Info("stopping all station sessions", "count", len(active))
	for _, s := range active {
		s.stop()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		joinTimeout := m.joinTimeout()
		var wg sync.WaitGroup
		for _, s := range active {
			wg.Add(1)
			go func(s *Session) {
				defer wg.Done()
				select {
				case <-s.done:
				case <-time.After(joinTimeout):
					slog.Error("session join timed out during shutdown", "station_id", s.station.ID)
				}
			}(s)
		}
		wg.Wait()
	}()
	return done
}

// Shutdown cancels the manager's root context and waits like StopAll.
func (m *Manager) Shutdown() <-chan struct{} {
	done := m.StopAll()
	m.cancel()
	return done
}

func (m *Manager) SetMaxConcurrent(n int) error {
	if n <= 0 {
		return ErrInvalidMaxActive
	}
	m.mu.Lock()
	m.maxConcurrent = n
	m.mu.Unlock()
	slog.Info("max concurrent sessions updated", "max_concurrent", n)
	return nil
}

func (m *Manager) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConcurrent
}

func (m *Manager) ActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Statuses returns a snapshot of every tracked session.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := make([]Status, 0, len(m.sessions))
	for _, s := range m.sessions {
		statuses = append(statuses, s.status())
	}
	return statuses
}

func (m *Manager) sessionConfig() sessionConfig {
	return sessionConfig{
		reader: stream.Config{
			ChunkBytes:     m.cfg.ChunkBytes,
			ConnectTimeout: time.Duration(m.cfg.ConnectTimeoutSec) * time.Second,
			ReadTimeout:    time.Duration(m.cfg.ReadTimeoutSec) * time.Second,
			Backoff:        time.Duration(m.cfg.ReconnectBackoffSec) * time.Second,
		},
		accumulator: segment.Config{
			TargetBytes:  m.cfg.SegmentTargetBytes,
			MaxWait:      time.Duration(m.cfg.SegmentMaxWaitSec) * time.Second,
			HardCapBytes: m.cfg.SegmentHardCapBytes,
		},
		queueSize: m.cfg.SegmentQueueSize,
		language:  m.cfg.TranscribeLanguage,
	}
}

func (m *Manager) joinTimeout() time.Duration {
	return time.Duration(m.cfg.JoinTimeoutSec) * time.Second
}

// reapWhenDone removes a session from the map after it reaches its
// terminal state, whether by explicit stop or configuration failure.
func (m *Manager) reapWhenDone(stationID string, s *Session) {
	<-s.done
	m.mu.Lock()
	if current, ok := m.sessions[stationID]; ok && current == s {
		delete(m.sessions, stationID)
	}
	m.mu.Unlock()
	m.metrics.SessionsStopped.Inc()
	m.metrics.ActiveSessions.Dec()
	slog.Info("station session stopped", "station_id", stationID)
}
