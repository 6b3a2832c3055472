package stream

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/airwavelab/contestwatch/internal/station"
)

func testConfig() Config {
	return Config{
		ChunkBytes:     8,
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
		Backoff:        10 * time.Millisecond,
	}
}

func TestRun_DeliversChunks(t *testing.T) {
	payload := []byte("0123456789abcdef")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "contestwatch/1.0" {
			t.Errorf("unexpected user agent: %s", got)
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	reader := NewReader(station.Station{ID: "kxyz", StreamURL: server.URL}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []byte
	var connected bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader.Run(ctx,
			func(c Chunk) {
				mu.Lock()
				received = append(received, c.Bytes...)
				if len(received) >= len(payload) {
					cancel()
				}
				mu.Unlock()
				if c.StationID != "kxyz" {
					t.Errorf("unexpected station id: %s", c.StationID)
				}
			},
			func(ok bool, err error) {
				if ok {
					mu.Lock()
					connected = true
					mu.Unlock()
				}
			})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if !connected {
		t.Fatal("expected a connected status callback")
	}
	if !bytes.Equal(received[:len(payload)], payload) {
		t.Fatalf("unexpected payload: %q", received)
	}
}

func TestRun_ReconnectsAfterStreamEnd(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	reader := NewReader(station.Station{ID: "kxyz", StreamURL: server.URL}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disconnects := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		reader.Run(ctx,
			func(Chunk) {},
			func(ok bool, err error) {
				if !ok {
					disconnects++
					if err == nil {
						t.Error("expected a disconnect error")
					}
					if disconnects >= 2 {
						cancel()
					}
				}
			})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not reconnect")
	}

	mu.Lock()
	defer mu.Unlock()
	if hits < 2 {
		t.Fatalf("expected at least 2 connection attempts, got %d", hits)
	}
}

func TestRun_BadStatusReportsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	reader := NewReader(station.Station{ID: "kxyz", StreamURL: server.URL}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader.Run(ctx,
			func(Chunk) {
				t.Error("unexpected chunk from error response")
			},
			func(ok bool, err error) {
				if ok {
					t.Error("unexpected connected status")
				}
				cancel()
			})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not report failure")
	}
}

func TestRun_StopsImmediatelyWhenCancelled(t *testing.T) {
	reader := NewReader(station.Station{ID: "kxyz", StreamURL: "http://127.0.0.1:0"}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader.Run(ctx, func(Chunk) {}, func(bool, error) {})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader did not exit on cancelled context")
	}
}
