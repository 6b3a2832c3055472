package directory

import (
	"time"

	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/station"
	"github.com/samber/do/v2"
)

const requestTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (station.Directory, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPDirectory(c.DirectoryAPIURL, requestTimeout), nil
	})
}
