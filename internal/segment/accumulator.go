package segment

import (
	"time"

	"github.com/google/uuid"
)

// Segment is a bounded run of accumulated raw audio bytes, handed to
// the decoder exactly once. Immutable after creation.
type Segment struct {
	ID             string
	StationID      string
	Payload        []byte
	ApproxDuration time.Duration
	SequenceNumber uint64
	ProducedAt     time.Time
}

type Config struct {
	// TargetBytes triggers a flush once that many bytes accumulated.
	TargetBytes int
	// MaxWait triggers a flush once that much time passed since the
	// last one, regardless of size.
	MaxWait time.Duration
	// HardCapBytes bounds the buffer: an Add that would exceed it
	// flushes immediately.
	HardCapBytes int
	// BytesPerSecond is the assumed stream bitrate used to estimate
	// segment duration. Zero derives it from TargetBytes/MaxWait.
	BytesPerSecond int
}

// Accumulator buffers raw chunks for one station and cuts segments on
// a size-or-time trigger. Not safe for concurrent use; each station's
// reader goroutine owns its accumulator.
type Accumulator struct {
	stationID string
	cfg       Config
	now       func() time.Time

	buf       []byte
	lastFlush time.Time
	nextSeq   uint64
}

func NewAccumulator(stationID string, cfg Config, now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	if cfg.HardCapBytes < cfg.TargetBytes {
		cfg.HardCapBytes = cfg.TargetBytes
	}
	if cfg.BytesPerSecond <= 0 && cfg.MaxWait > 0 {
		cfg.BytesPerSecond = int(float64(cfg.TargetBytes) / cfg.MaxWait.Seconds())
	}
	return &Accumulator{
		stationID: stationID,
		cfg:       cfg,
		now:       now,
		lastFlush: now(),
	}
}

// Add appends a chunk and returns a segment when either trigger fires.
// Returns nil while the buffer is still filling.
func (a *Accumulator) Add(chunk []byte) *Segment {
	if len(a.buf)+len(chunk) > a.cfg.HardCapBytes && len(a.buf) > 0 {
		seg := a.flush()
		a.buf = append(a.buf, chunk...)
		return seg
	}
	a.buf = append(a.buf, chunk...)

	if len(a.buf) >= a.cfg.TargetBytes {
		return a.flush()
	}
	if a.cfg.MaxWait > 0 && a.now().Sub(a.lastFlush) >= a.cfg.MaxWait {
		return a.flush()
	}
	return nil
}

// BufferedBytes reports the current buffer length.
func (a *Accumulator) BufferedBytes() int {
	return len(a.buf)
}

func (a *Accumulator) flush() *Segment {
	now := a.now()
	a.lastFlush = now
	if len(a.buf) == 0 {
		return nil
	}
	payload := make([]byte, len(a.buf))
	copy(payload, a.buf)
	a.buf = a.buf[:0]

	seg := &Segment{
		ID:             uuid.NewString(),
		StationID:      a.stationID,
		Payload:        payload,
		SequenceNumber: a.nextSeq,
		ProducedAt:     now,
	}
	if a.cfg.BytesPerSecond > 0 {
		seg.ApproxDuration = time.Duration(float64(len(payload)) / float64(a.cfg.BytesPerSecond) * float64(time.Second))
	}
	a.nextSeq++
	return seg
}
