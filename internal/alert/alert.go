package alert

import (
	"context"

	"github.com/airwavelab/contestwatch/internal/event"
)

// Notifier delivers a contest match to one outbound channel. Delivery
// failure is the notifier's own problem to report; callers never block
// the detection pipeline on it.
type Notifier interface {
	NotifyContestMatch(ctx context.Context, match event.ContestMatch) error
}
