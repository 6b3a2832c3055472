package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/airwavelab/contestwatch/internal/transcriber"
)

const maxRetryBackoff = 30 * time.Second

type WhisperConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
	SampleRate    int
}

// WhisperTranscriber talks to a whisper-compatible HTTP endpoint:
// multipart WAV upload, JSON response. A semaphore caps in-flight
// requests across all stations; retries back off exponentially up to
// maxRetryBackoff.
type WhisperTranscriber struct {
	cfg        WhisperConfig
	httpClient *http.Client
	semaphore  chan struct{}
}

type whisperResponse struct {
	Text string `json:"text"`
}

func NewWhisperTranscriber(cfg WhisperConfig) (*WhisperTranscriber, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	return &WhisperTranscriber{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		semaphore: make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, pcm []byte, language string) (string, error) {
	select {
	case t.semaphore <- struct{}{}:
		defer func() { <-t.semaphore }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	wav, err := encodeWAV(pcm, t.cfg.SampleRate)
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := t.doRequest(ctx, wav, language)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}
	return "", fmt.Errorf("transcription failed after %d attempts: %w", t.cfg.MaxRetries+1, lastErr)
}

func (t *WhisperTranscriber) doRequest(ctx context.Context, wav []byte, language string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "segment.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fileWriter.Write(wav); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	fields := map[string]string{
		"language":        language,
		"response_format": "json",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http error %d: %s", resp.StatusCode, string(body))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response json: %w", err)
	}
	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", transcriber.ErrEmptyTranscript
	}
	return text, nil
}

func isRetryable(err error) bool {
	if err == transcriber.ErrEmptyTranscript {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "http error 5") || strings.Contains(msg, "http error 429") {
		return true
	}
	return strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "refused")
}
