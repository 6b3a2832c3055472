package repository

import (
	"context"
	"time"
)

type StartStationRunInput struct {
	StationID string
	Name      string
	StreamURL string
	StartedAt time.Time
}

type FinishStationRunInput struct {
	RunID      string
	EndedAt    time.Time
	Reconnects int64
}

type InsertTranscriptInput struct {
	RunID          *string
	StationID      string
	SequenceNumber int64
	Text           string
	ProducedAt     time.Time
}

type InsertContestMatchInput struct {
	RunID          *string
	StationID      string
	SequenceNumber int64
	MatchedKeyword string
	Text           string
	DetectedAt     time.Time
}

type StationRunRepository interface {
	StartStationRun(ctx context.Context, input StartStationRunInput) (*StationRun, error)
	FinishStationRun(ctx context.Context, input FinishStationRunInput) error
	IncrementRunReconnects(ctx context.Context, runID string) error
	GetRunningStationRun(ctx context.Context, stationID string) (*StationRun, error)
}

type TranscriptRepository interface {
	InsertTranscript(ctx context.Context, input InsertTranscriptInput) error
	ListTranscriptsByRunID(ctx context.Context, runID string) ([]Transcript, error)
}

type ContestMatchRepository interface {
	InsertContestMatch(ctx context.Context, input InsertContestMatchInput) error
	ListRecentContestMatches(ctx context.Context, limit int) ([]ContestMatch, error)
}

type Repository interface {
	StationRunRepository
	TranscriptRepository
	ContestMatchRepository
}
