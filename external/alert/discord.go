package alert

import (
	"context"
	"fmt"

	"github.com/airwavelab/contestwatch/internal/alert"
	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts contest matches as messages to a fixed channel.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(token, channelID string) (alert.Notifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return &DiscordNotifier{
		session:   s,
		channelID: channelID,
	}, nil
}

func (n *DiscordNotifier) NotifyContestMatch(ctx context.Context, match event.ContestMatch) error {
	_ = ctx
	content := fmt.Sprintf(
		"🎁 Contest detected on **%s** (keyword: `%s`)\n> %s",
		match.StationID, match.MatchedKeyword, match.Text,
	)
	_, err := n.session.ChannelMessageSend(n.channelID, content)
	return err
}

func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}
