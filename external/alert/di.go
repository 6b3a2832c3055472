package alert

import (
	"github.com/airwavelab/contestwatch/internal/alert"
	"github.com/airwavelab/contestwatch/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) ([]alert.Notifier, error) {
		c := do.MustInvoke[*config.Config](i)
		notifiers := []alert.Notifier{NewWebhookNotifier(c.AlertWebhookURL)}
		if c.DiscordToken != "" && c.DiscordAlertChannelID != "" {
			dn, err := NewDiscordNotifier(c.DiscordToken, c.DiscordAlertChannelID)
			if err != nil {
				return nil, err
			}
			notifiers = append(notifiers, dn)
		}
		return notifiers, nil
	})
}
