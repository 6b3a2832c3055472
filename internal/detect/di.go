package detect

import (
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Detector, error) {
		c := do.MustInvoke[*config.Config](i)
		rules := DefaultRules()
		if c.KeywordRulesPath != "" {
			loaded, err := LoadRules(c.KeywordRulesPath)
			if err != nil {
				return nil, err
			}
			rules = loaded
		}
		return NewDetector(rules), nil
	})
}
