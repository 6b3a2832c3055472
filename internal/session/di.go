package session

import (
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/decoder"
	"github.com/airwavelab/contestwatch/internal/detect"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/metrics"
	"github.com/airwavelab/contestwatch/internal/station"
	"github.com/airwavelab/contestwatch/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		return NewManager(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[station.Directory](i),
			do.MustInvoke[decoder.Decoder](i),
			do.MustInvoke[transcriber.Transcriber](i),
			do.MustInvoke[*detect.Detector](i),
			do.MustInvoke[event.Sink](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
}
