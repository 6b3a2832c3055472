package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/airwavelab/contestwatch/internal/session"
)

const persistTimeout = 10 * time.Second

// Persister writes pipeline events through the repository. It tracks
// the open run per station so transcripts and matches land on the
// right row. All methods run on the dispatcher's worker goroutine, so
// the run map needs no locking.
type Persister struct {
	repo repository.Repository
	runs map[string]string
}

func NewPersister(repo repository.Repository) *Persister {
	return &Persister{
		repo: repo,
		runs: make(map[string]string),
	}
}

func (p *Persister) TranscriptProduced(r event.TranscriptResult) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := p.repo.InsertTranscript(ctx, repository.InsertTranscriptInput{
		RunID:          p.runID(r.StationID),
		StationID:      r.StationID,
		SequenceNumber: int64(r.SequenceNumber),
		Text:           r.Text,
		ProducedAt:     r.ProducedAt,
	})
	if err != nil {
		slog.Error("failed to persist transcript", "station_id", r.StationID, "error", err)
	}
}

func (p *Persister) ContestDetected(m event.ContestMatch) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := p.repo.InsertContestMatch(ctx, repository.InsertContestMatchInput{
		RunID:          p.runID(m.StationID),
		StationID:      m.StationID,
		SequenceNumber: int64(m.SequenceNumber),
		MatchedKeyword: m.MatchedKeyword,
		Text:           m.Text,
		DetectedAt:     m.DetectedAt,
	})
	if err != nil {
		slog.Error("failed to persist contest match", "station_id", m.StationID, "error", err)
	}
}

func (p *Persister) SessionStateChanged(c event.StateChange) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	switch session.State(c.State) {
	case session.StateConnecting:
		if _, open := p.runs[c.StationID]; open {
			return
		}
		p.closeOrphanedRun(ctx, c.StationID)
		run, err := p.repo.StartStationRun(ctx, repository.StartStationRunInput{
			StationID: c.StationID,
			Name:      c.DisplayName,
			StreamURL: c.StreamURL,
			StartedAt: c.ChangedAt,
		})
		if err != nil {
			slog.Error("failed to open station run", "station_id", c.StationID, "error", err)
			return
		}
		p.runs[c.StationID] = run.ID
	case session.StateReconnecting:
		if runID, open := p.runs[c.StationID]; open {
			if err := p.repo.IncrementRunReconnects(ctx, runID); err != nil {
				slog.Error("failed to record reconnect", "station_id", c.StationID, "error", err)
			}
		}
	case session.StateStopped:
		runID, open := p.runs[c.StationID]
		if !open {
			return
		}
		delete(p.runs, c.StationID)
		err := p.repo.FinishStationRun(ctx, repository.FinishStationRunInput{
			RunID:      runID,
			EndedAt:    c.ChangedAt,
			Reconnects: int64(c.Reconnects),
		})
		if err != nil {
			slog.Error("failed to close station run", "station_id", c.StationID, "error", err)
		}
	}
}

// closeOrphanedRun finishes a run left in the running state by an
// earlier process that died without emitting a stopped event.
func (p *Persister) closeOrphanedRun(ctx context.Context, stationID string) {
	run, err := p.repo.GetRunningStationRun(ctx, stationID)
	if err != nil {
		slog.Error("failed to look up running station run", "station_id", stationID, "error", err)
		return
	}
	if run == nil {
		return
	}
	slog.Warn("closing orphaned station run", "station_id", stationID, "run_id", run.ID)
	err = p.repo.FinishStationRun(ctx, repository.FinishStationRunInput{
		RunID:      run.ID,
		EndedAt:    time.Now(),
		Reconnects: run.Reconnects,
	})
	if err != nil {
		slog.Error("failed to close orphaned station run", "station_id", stationID, "error", err)
	}
}

func (p *Persister) runID(stationID string) *string {
	if id, ok := p.runs[stationID]; ok {
		return &id
	}
	return nil
}
