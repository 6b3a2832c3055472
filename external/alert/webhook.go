package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/airwavelab/contestwatch/internal/alert"
	"github.com/airwavelab/contestwatch/internal/event"
)

type ContestMatchPayload struct {
	StationID      string    `json:"station_id"`
	SequenceNumber uint64    `json:"sequence_number"`
	MatchedKeyword string    `json:"matched_keyword"`
	Text           string    `json:"text"`
	DetectedAt     time.Time `json:"detected_at"`
}

// WebhookNotifier POSTs contest matches as JSON to a configured URL.
// An empty URL disables delivery without erroring, so the notifier can
// be wired unconditionally.
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewWebhookNotifier(webhookURL string) alert.Notifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) NotifyContestMatch(ctx context.Context, match event.ContestMatch) error {
	if n.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(ContestMatchPayload{
		StationID:      match.StationID,
		SequenceNumber: match.SequenceNumber,
		MatchedKeyword: match.MatchedKeyword,
		Text:           match.Text,
		DetectedAt:     match.DetectedAt,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
