package decoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/airwavelab/contestwatch/internal/decoder"
	"github.com/airwavelab/contestwatch/internal/segment"
)

const maxStderrBytes = 2048

type FFmpegConfig struct {
	Path       string
	SampleRate int
}

// FFmpegDecoder shells out to ffmpeg over pipes: compressed bytes on
// stdin, s16le mono PCM on stdout. No intermediate files, so the only
// cleanup path is reaping the process, which CommandContext guarantees
// even on cancellation.
type FFmpegDecoder struct {
	path       string
	sampleRate int
}

func NewFFmpegDecoder(cfg FFmpegConfig) decoder.Decoder {
	path := cfg.Path
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegDecoder{path: path, sampleRate: cfg.SampleRate}
}

func (d *FFmpegDecoder) Decode(ctx context.Context, seg *segment.Segment) ([]byte, error) {
	args := []string{
		"-y", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(d.sampleRate),
		"-ac", "1",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.path, args...)
	cmd.Stdin = bytes.NewReader(seg.Payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &decoder.DecodeError{
			StationID: seg.StationID,
			Stderr:    truncateStderr(stderr.String()),
			Err:       err,
		}
	}
	if stdout.Len() == 0 {
		return nil, &decoder.DecodeError{
			StationID: seg.StationID,
			Stderr:    truncateStderr(stderr.String()),
			Err:       fmt.Errorf("ffmpeg produced no output"),
		}
	}
	return stdout.Bytes(), nil
}

func truncateStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrBytes {
		return s[:maxStderrBytes]
	}
	return s
}
