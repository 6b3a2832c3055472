package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.Transcriber {
		case config.TranscriberGoogle:
			return NewCloudSpeechTranscriber(context.Background(), CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
				SampleRate:      c.SampleRate,
			})
		case config.TranscriberWhisper:
			return NewWhisperTranscriber(WhisperConfig{
				Endpoint:      c.WhisperEndpoint,
				APIKey:        c.WhisperAPIKey,
				Timeout:       time.Duration(c.WhisperTimeoutSec) * time.Second,
				MaxRetries:    c.WhisperMaxRetries,
				MaxConcurrent: c.WhisperMaxConcurrent,
				SampleRate:    c.SampleRate,
			})
		default:
			return nil, fmt.Errorf("unknown transcriber %q", c.Transcriber)
		}
	})
}
