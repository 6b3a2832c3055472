package decoder

import (
	"context"
	"fmt"

	"github.com/airwavelab/contestwatch/internal/segment"
)

// Decoder converts one compressed segment into mono PCM at the fixed
// sample rate every station shares, so the transcription stage sees a
// uniform input.
type Decoder interface {
	Decode(ctx context.Context, seg *segment.Segment) ([]byte, error)
}

// DecodeError reports a failed conversion. The segment is dropped and
// the session continues with the next one.
type DecodeError struct {
	StationID string
	Stderr    string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("decode segment for station %s: %v: %s", e.StationID, e.Err, e.Stderr)
	}
	return fmt.Sprintf("decode segment for station %s: %v", e.StationID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
