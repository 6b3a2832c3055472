package config

import (
	"fmt"
)

const (
	TranscriberGoogle  = "google"
	TranscriberWhisper = "whisper"
)

type Config struct {
	Env                string
	TranscribeLanguage string
	DatabaseURL        string

	DirectoryAPIURL string
	StationFilter   string

	MaxConcurrentStations int
	ChunkBytes            int
	SegmentTargetBytes    int
	SegmentMaxWaitSec     int
	SegmentHardCapBytes   int
	SegmentQueueSize      int
	ConnectTimeoutSec     int
	ReadTimeoutSec        int
	ReconnectBackoffSec   int
	JoinTimeoutSec        int

	SampleRate int
	FFmpegPath string

	Transcriber                string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	WhisperEndpoint            string
	WhisperAPIKey              string
	WhisperTimeoutSec          int
	WhisperMaxRetries          int
	WhisperMaxConcurrent       int

	KeywordRulesPath string

	DiscordToken          string
	DiscordAlertChannelID string
	AlertWebhookURL       string

	HTTPListenAddr string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.Transcriber {
	case TranscriberGoogle:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when TRANSCRIBER=google")
		}
	case TranscriberWhisper:
		if c.WhisperEndpoint == "" {
			return fmt.Errorf("WHISPER_ENDPOINT is required when TRANSCRIBER=whisper")
		}
	default:
		return fmt.Errorf("TRANSCRIBER must be %q or %q, got %q", TranscriberGoogle, TranscriberWhisper, c.Transcriber)
	}
	if c.DiscordToken != "" && c.DiscordAlertChannelID == "" {
		return fmt.Errorf("DISCORD_ALERT_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	if c.MaxConcurrentStations <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_STATIONS must be positive, got %d", c.MaxConcurrentStations)
	}
	if c.ChunkBytes <= 0 {
		return fmt.Errorf("CHUNK_BYTES must be positive, got %d", c.ChunkBytes)
	}
	if c.SegmentTargetBytes <= 0 {
		return fmt.Errorf("SEGMENT_TARGET_BYTES must be positive, got %d", c.SegmentTargetBytes)
	}
	if c.SegmentHardCapBytes < c.SegmentTargetBytes {
		return fmt.Errorf("SEGMENT_HARD_CAP_BYTES (%d) must be at least SEGMENT_TARGET_BYTES (%d)", c.SegmentHardCapBytes, c.SegmentTargetBytes)
	}
	if c.SegmentMaxWaitSec <= 0 {
		return fmt.Errorf("SEGMENT_MAX_WAIT_SEC must be positive, got %d", c.SegmentMaxWaitSec)
	}
	if c.SegmentQueueSize <= 0 {
		return fmt.Errorf("SEGMENT_QUEUE_SIZE must be positive, got %d", c.SegmentQueueSize)
	}
	if c.ConnectTimeoutSec <= 0 {
		return fmt.Errorf("CONNECT_TIMEOUT_SEC must be positive, got %d", c.ConnectTimeoutSec)
	}
	if c.ReadTimeoutSec <= 0 {
		return fmt.Errorf("READ_TIMEOUT_SEC must be positive, got %d", c.ReadTimeoutSec)
	}
	if c.ReconnectBackoffSec <= 0 {
		return fmt.Errorf("RECONNECT_BACKOFF_SEC must be positive, got %d", c.ReconnectBackoffSec)
	}
	if c.JoinTimeoutSec <= 0 {
		return fmt.Errorf("JOIN_TIMEOUT_SEC must be positive, got %d", c.JoinTimeoutSec)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "TRANSCRIBE_LANGUAGE", value: c.TranscribeLanguage},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "DIRECTORY_API_URL", value: c.DirectoryAPIURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
