package decoder

import (
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/decoder"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (decoder.Decoder, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewFFmpegDecoder(FFmpegConfig{
			Path:       c.FFmpegPath,
			SampleRate: c.SampleRate,
		}), nil
	})
}
