package server

import (
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/airwavelab/contestwatch/internal/session"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Hub, error) {
		return NewHub(), nil
	})
	do.Provide(injector, func(i do.Injector) (*HTTPServer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPServer(
			c.HTTPListenAddr,
			do.MustInvoke[*session.Manager](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[*Hub](i),
		), nil
	})
}
