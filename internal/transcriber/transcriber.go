package transcriber

import (
	"context"
	"errors"
)

// ErrEmptyTranscript marks engine output that contained no usable
// text. The segment is dropped; an empty result is never propagated.
var ErrEmptyTranscript = errors.New("transcription produced no text")

// Transcriber converts a mono PCM buffer into text. Implementations
// may be slow and must be safe for concurrent calls from independent
// station pipelines.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (string, error)
}
