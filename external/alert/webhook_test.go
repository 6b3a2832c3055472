package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airwavelab/contestwatch/internal/event"
)

func TestNotifyContestMatch_EmptyWebhookURL(t *testing.T) {
	notifier := NewWebhookNotifier("")
	if err := notifier.NotifyContestMatch(context.Background(), event.ContestMatch{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNotifyContestMatch_Success(t *testing.T) {
	var got ContestMatchPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	match := event.ContestMatch{
		StationID:      "kxyz",
		SequenceNumber: 7,
		MatchedKeyword: "call now",
		Text:           "call now for your chance to win",
		DetectedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	notifier := NewWebhookNotifier(server.URL)
	if err := notifier.NotifyContestMatch(context.Background(), match); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.StationID != "kxyz" {
		t.Fatalf("unexpected station id: %s", got.StationID)
	}
	if got.SequenceNumber != 7 {
		t.Fatalf("unexpected sequence number: %d", got.SequenceNumber)
	}
	if got.MatchedKeyword != "call now" {
		t.Fatalf("unexpected keyword: %s", got.MatchedKeyword)
	}
	if !got.DetectedAt.Equal(match.DetectedAt) {
		t.Fatalf("unexpected detected at: %v", got.DetectedAt)
	}
}

func TestNotifyContestMatch_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	if err := notifier.NotifyContestMatch(context.Background(), event.ContestMatch{}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
