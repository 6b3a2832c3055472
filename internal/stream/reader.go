package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/airwavelab/contestwatch/internal/station"
)

// Chunk is one network read from a station's stream. Owned by the
// reader until handed to the chunk callback.
type Chunk struct {
	StationID  string
	Bytes      []byte
	ReceivedAt time.Time
}

type Config struct {
	ChunkBytes     int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Backoff        time.Duration
}

// Reader owns one streaming HTTP connection to one station. It pushes
// chunks to onChunk and signals connection state flips to onStatus.
// Retries are unbounded: the reader keeps reconnecting with a fixed
// backoff until its context is cancelled.
type Reader struct {
	station station.Station
	cfg     Config
	client  *http.Client
}

func NewReader(st station.Station, cfg Config) *Reader {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readDeadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
		},
		ResponseHeaderTimeout: cfg.ConnectTimeout,
		DisableCompression:    true,
	}
	return &Reader{
		station: st,
		cfg:     cfg,
		client:  &http.Client{Transport: transport},
	}
}

// Run blocks until ctx is cancelled. Each failed or ended connection
// attempt is reported through onStatus before the backoff sleep.
func (r *Reader) Run(ctx context.Context, onChunk func(Chunk), onStatus func(connected bool, err error)) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := r.streamOnce(ctx, onChunk, onStatus)
		if ctx.Err() != nil {
			return
		}
		onStatus(false, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.Backoff):
		}
	}
}

func (r *Reader) streamOnce(ctx context.Context, onChunk func(Chunk), onStatus func(connected bool, err error)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.station.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("User-Agent", "contestwatch/1.0")
	req.Header.Set("Accept", "*/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to stream: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}
	onStatus(true, nil)

	buf := make([]byte, r.cfg.ChunkBytes)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			onChunk(Chunk{StationID: r.station.ID, Bytes: b, ReceivedAt: time.Now()})
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("stream ended: %w", err)
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if n == 0 {
			slog.Debug("empty read from stream", "station_id", r.station.ID)
		}
	}
}

// readDeadlineConn bounds every read so a stalled stream never blocks
// past the configured read timeout.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(b []byte) (int, error) {
	if err := c.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}
