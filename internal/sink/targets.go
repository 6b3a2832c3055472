package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/airwavelab/contestwatch/internal/alert"
	"github.com/airwavelab/contestwatch/internal/event"
)

// BaseSink is a no-op event.Sink for targets that only care about a
// subset of events.
type BaseSink struct{}

func (BaseSink) TranscriptProduced(event.TranscriptResult) {}
func (BaseSink) ContestDetected(event.ContestMatch)        {}
func (BaseSink) SessionStateChanged(event.StateChange)     {}

// LogSink records every event to the structured log.
type LogSink struct{}

func (LogSink) TranscriptProduced(r event.TranscriptResult) {
	slog.Debug("transcript produced",
		"station_id", r.StationID,
		"sequence_number", r.SequenceNumber,
		"text_length", len(r.Text),
	)
}

func (LogSink) ContestDetected(m event.ContestMatch) {
	slog.Info("contest match",
		"station_id", m.StationID,
		"sequence_number", m.SequenceNumber,
		"keyword", m.MatchedKeyword,
	)
}

func (LogSink) SessionStateChanged(c event.StateChange) {
	slog.Info("session state changed",
		"station_id", c.StationID,
		"state", c.State,
		"reconnects", c.Reconnects,
	)
}

const notifyTimeout = 15 * time.Second

// NotifierSink forwards contest matches to the configured alert
// notifiers. Runs on the dispatcher's worker goroutine, so delivery
// gets its own timeout and failures are logged, never propagated.
type NotifierSink struct {
	BaseSink
	notifiers []alert.Notifier
}

func NewNotifierSink(notifiers []alert.Notifier) *NotifierSink {
	return &NotifierSink{notifiers: notifiers}
}

func (s *NotifierSink) ContestDetected(m event.ContestMatch) {
	for _, n := range s.notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := n.NotifyContestMatch(ctx, m); err != nil {
			slog.Error("alert delivery failed",
				"station_id", m.StationID,
				"keyword", m.MatchedKeyword,
				"error", err,
			)
		}
		cancel()
	}
}
