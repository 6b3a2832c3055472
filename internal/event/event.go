package event

import "time"

type TranscriptResult struct {
	StationID      string    `json:"station_id"`
	SequenceNumber uint64    `json:"sequence_number"`
	Text           string    `json:"text"`
	ProducedAt     time.Time `json:"produced_at"`
}

type ContestMatch struct {
	StationID      string    `json:"station_id"`
	SequenceNumber uint64    `json:"sequence_number"`
	MatchedKeyword string    `json:"matched_keyword"`
	Text           string    `json:"text"`
	DetectedAt     time.Time `json:"detected_at"`
}

type StateChange struct {
	StationID   string    `json:"station_id"`
	DisplayName string    `json:"display_name"`
	StreamURL   string    `json:"stream_url"`
	State       string    `json:"state"`
	Reconnects  uint64    `json:"reconnects"`
	ChangedAt   time.Time `json:"changed_at"`
}

// Sink receives pipeline output. Implementations must not block the
// caller; the session hands events off on its pipeline goroutine.
type Sink interface {
	TranscriptProduced(result TranscriptResult)
	ContestDetected(match ContestMatch)
	SessionStateChanged(change StateChange)
}
