package repository

import "time"

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusStopped RunStatus = "stopped"
)

type StationRun struct {
	ID         string
	StationID  string
	Name       string
	StreamURL  string
	StartedAt  time.Time
	EndedAt    *time.Time
	Status     RunStatus
	Reconnects int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Transcript struct {
	ID             string
	RunID          *string
	StationID      string
	SequenceNumber int64
	Text           string
	ProducedAt     time.Time
	CreatedAt      time.Time
}

type ContestMatch struct {
	ID             string
	RunID          *string
	StationID      string
	SequenceNumber int64
	MatchedKeyword string
	Text           string
	DetectedAt     time.Time
	CreatedAt      time.Time
}
