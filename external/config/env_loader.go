package config

import (
	"fmt"

	internalconfig "github.com/airwavelab/contestwatch/internal/config"
	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	Env                string `env:"ENV" envDefault:"production"`
	TranscribeLanguage string `env:"TRANSCRIBE_LANGUAGE,required"`
	DatabaseURL        string `env:"DATABASE_URL,required"`

	DirectoryAPIURL string `env:"DIRECTORY_API_URL,required"`
	StationFilter   string `env:"STATION_FILTER"`

	MaxConcurrentStations int `env:"MAX_CONCURRENT_STATIONS" envDefault:"8"`
	ChunkBytes            int `env:"CHUNK_BYTES" envDefault:"32768"`
	SegmentTargetBytes    int `env:"SEGMENT_TARGET_BYTES" envDefault:"960000"`
	SegmentMaxWaitSec     int `env:"SEGMENT_MAX_WAIT_SEC" envDefault:"30"`
	SegmentHardCapBytes   int `env:"SEGMENT_HARD_CAP_BYTES" envDefault:"3840000"`
	SegmentQueueSize      int `env:"SEGMENT_QUEUE_SIZE" envDefault:"4"`
	ConnectTimeoutSec     int `env:"CONNECT_TIMEOUT_SEC" envDefault:"10"`
	ReadTimeoutSec        int `env:"READ_TIMEOUT_SEC" envDefault:"10"`
	ReconnectBackoffSec   int `env:"RECONNECT_BACKOFF_SEC" envDefault:"5"`
	JoinTimeoutSec        int `env:"JOIN_TIMEOUT_SEC" envDefault:"15"`

	SampleRate int    `env:"SAMPLE_RATE" envDefault:"16000"`
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	Transcriber                string `env:"TRANSCRIBER" envDefault:"whisper"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	WhisperEndpoint            string `env:"WHISPER_ENDPOINT"`
	WhisperAPIKey              string `env:"WHISPER_API_KEY"`
	WhisperTimeoutSec          int    `env:"WHISPER_TIMEOUT_SEC" envDefault:"60"`
	WhisperMaxRetries          int    `env:"WHISPER_MAX_RETRIES" envDefault:"3"`
	WhisperMaxConcurrent       int    `env:"WHISPER_MAX_CONCURRENT" envDefault:"8"`

	KeywordRulesPath string `env:"KEYWORD_RULES_PATH"`

	DiscordToken          string `env:"DISCORD_TOKEN"`
	DiscordAlertChannelID string `env:"DISCORD_ALERT_CHANNEL_ID"`
	AlertWebhookURL       string `env:"ALERT_WEBHOOK_URL"`

	HTTPListenAddr string `env:"HTTP_LISTEN_ADDR" envDefault:":8080"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		TranscribeLanguage:         raw.TranscribeLanguage,
		DatabaseURL:                raw.DatabaseURL,
		DirectoryAPIURL:            raw.DirectoryAPIURL,
		StationFilter:              raw.StationFilter,
		MaxConcurrentStations:      raw.MaxConcurrentStations,
		ChunkBytes:                 raw.ChunkBytes,
		SegmentTargetBytes:         raw.SegmentTargetBytes,
		SegmentMaxWaitSec:          raw.SegmentMaxWaitSec,
		SegmentHardCapBytes:        raw.SegmentHardCapBytes,
		SegmentQueueSize:           raw.SegmentQueueSize,
		ConnectTimeoutSec:          raw.ConnectTimeoutSec,
		ReadTimeoutSec:             raw.ReadTimeoutSec,
		ReconnectBackoffSec:        raw.ReconnectBackoffSec,
		JoinTimeoutSec:             raw.JoinTimeoutSec,
		SampleRate:                 raw.SampleRate,
		FFmpegPath:                 raw.FFmpegPath,
		Transcriber:                raw.Transcriber,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		WhisperEndpoint:            raw.WhisperEndpoint,
		WhisperAPIKey:              raw.WhisperAPIKey,
		WhisperTimeoutSec:          raw.WhisperTimeoutSec,
		WhisperMaxRetries:          raw.WhisperMaxRetries,
		WhisperMaxConcurrent:       raw.WhisperMaxConcurrent,
		KeywordRulesPath:           raw.KeywordRulesPath,
		DiscordToken:               raw.DiscordToken,
		DiscordAlertChannelID:      raw.DiscordAlertChannelID,
		AlertWebhookURL:            raw.AlertWebhookURL,
		HTTPListenAddr:             raw.HTTPListenAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
