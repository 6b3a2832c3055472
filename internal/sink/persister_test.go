package sink

import (
	"context"
	"testing"
	"time"

	"github.com/airwavelab/contestwatch/internal/event"
	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/airwavelab/contestwatch/internal/session"
)

type recordingRepo struct {
	startedRuns   []repository.StartStationRunInput
	finishedRuns  []repository.FinishStationRunInput
	reconnectRuns []string
	transcripts   []repository.InsertTranscriptInput
	matches       []repository.InsertContestMatchInput
	orphanRun     *repository.StationRun
}

func (r *recordingRepo) StartStationRun(ctx context.Context, input repository.StartStationRunInput) (*repository.StationRun, error) {
	r.startedRuns = append(r.startedRuns, input)
	return &repository.StationRun{ID: "run-1", StationID: input.StationID}, nil
}

func (r *recordingRepo) FinishStationRun(ctx context.Context, input repository.FinishStationRunInput) error {
	r.finishedRuns = append(r.finishedRuns, input)
	return nil
}

func (r *recordingRepo) IncrementRunReconnects(ctx context.Context, runID string) error {
	r.reconnectRuns = append(r.reconnectRuns, runID)
	return nil
}

func (r *recordingRepo) GetRunningStationRun(ctx context.Context, stationID string) (*repository.StationRun, error) {
	if r.orphanRun != nil && r.orphanRun.StationID == stationID {
		return r.orphanRun, nil
	}
	return nil, nil
}

func (r *recordingRepo) InsertTranscript(ctx context.Context, input repository.InsertTranscriptInput) error {
	r.transcripts = append(r.transcripts, input)
	return nil
}

func (r *recordingRepo) ListTranscriptsByRunID(ctx context.Context, runID string) ([]repository.Transcript, error) {
	return nil, nil
}

func (r *recordingRepo) InsertContestMatch(ctx context.Context, input repository.InsertContestMatchInput) error {
	r.matches = append(r.matches, input)
	return nil
}

func (r *recordingRepo) ListRecentContestMatches(ctx context.Context, limit int) ([]repository.ContestMatch, error) {
	return nil, nil
}

func TestPersister_RunLifecycle(t *testing.T) {
	repo := &recordingRepo{}
	p := NewPersister(repo)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p.SessionStateChanged(event.StateChange{
		StationID:   "kxyz",
		DisplayName: "KXYZ",
		StreamURL:   "https://stream.example/kxyz",
		State:       string(session.StateConnecting),
		ChangedAt:   now,
	})
	if len(repo.startedRuns) != 1 || repo.startedRuns[0].StationID != "kxyz" {
		t.Fatalf("expected one opened run, got %+v", repo.startedRuns)
	}
	if repo.startedRuns[0].Name != "KXYZ" || repo.startedRuns[0].StreamURL != "https://stream.example/kxyz" {
		t.Fatalf("expected station name and stream url on the run, got %+v", repo.startedRuns[0])
	}

	p.TranscriptProduced(event.TranscriptResult{
		StationID:      "kxyz",
		SequenceNumber: 3,
		Text:           "hello listeners",
		ProducedAt:     now,
	})
	if len(repo.transcripts) != 1 {
		t.Fatalf("expected one transcript, got %d", len(repo.transcripts))
	}
	if repo.transcripts[0].RunID == nil || *repo.transcripts[0].RunID != "run-1" {
		t.Fatalf("expected transcript bound to run-1, got %+v", repo.transcripts[0].RunID)
	}

	p.ContestDetected(event.ContestMatch{
		StationID:      "kxyz",
		SequenceNumber: 3,
		MatchedKeyword: "win",
		Text:           "hello listeners, win big",
		DetectedAt:     now,
	})
	if len(repo.matches) != 1 || repo.matches[0].MatchedKeyword != "win" {
		t.Fatalf("unexpected matches: %+v", repo.matches)
	}

	p.SessionStateChanged(event.StateChange{
		StationID: "kxyz",
		State:     string(session.StateReconnecting),
		ChangedAt: now,
	})
	if len(repo.reconnectRuns) != 1 {
		t.Fatalf("expected one reconnect update, got %d", len(repo.reconnectRuns))
	}

	p.SessionStateChanged(event.StateChange{
		StationID:  "kxyz",
		State:      string(session.StateStopped),
		Reconnects: 1,
		ChangedAt:  now,
	})
	if len(repo.finishedRuns) != 1 || repo.finishedRuns[0].RunID != "run-1" {
		t.Fatalf("expected run-1 finished, got %+v", repo.finishedRuns)
	}
	if repo.finishedRuns[0].Reconnects != 1 {
		t.Fatalf("expected reconnect count persisted, got %d", repo.finishedRuns[0].Reconnects)
	}
}

func TestPersister_UnknownStationHasNilRunID(t *testing.T) {
	repo := &recordingRepo{}
	p := NewPersister(repo)

	p.TranscriptProduced(event.TranscriptResult{StationID: "never-started", Text: "hello"})
	if len(repo.transcripts) != 1 {
		t.Fatalf("expected one transcript, got %d", len(repo.transcripts))
	}
	if repo.transcripts[0].RunID != nil {
		t.Fatalf("expected nil run id, got %v", *repo.transcripts[0].RunID)
	}
}

func TestPersister_DuplicateConnectingDoesNotReopenRun(t *testing.T) {
	repo := &recordingRepo{}
	p := NewPersister(repo)
	now := time.Now()

	p.SessionStateChanged(event.StateChange{StationID: "kxyz", State: string(session.StateConnecting), ChangedAt: now})
	p.SessionStateChanged(event.StateChange{StationID: "kxyz", State: string(session.StateConnecting), ChangedAt: now})
	if len(repo.startedRuns) != 1 {
		t.Fatalf("expected a single opened run, got %d", len(repo.startedRuns))
	}
}

func TestPersister_ClosesOrphanedRunOnConnect(t *testing.T) {
	repo := &recordingRepo{
		orphanRun: &repository.StationRun{
			ID:         "run-stale",
			StationID:  "kxyz",
			Status:     repository.RunStatusRunning,
			Reconnects: 2,
		},
	}
	p := NewPersister(repo)

	p.SessionStateChanged(event.StateChange{
		StationID: "kxyz",
		State:     string(session.StateConnecting),
		ChangedAt: time.Now(),
	})

	if len(repo.finishedRuns) != 1 || repo.finishedRuns[0].RunID != "run-stale" {
		t.Fatalf("expected stale run finished, got %+v", repo.finishedRuns)
	}
	if repo.finishedRuns[0].Reconnects != 2 {
		t.Fatalf("expected stale reconnect count carried over, got %d", repo.finishedRuns[0].Reconnects)
	}
	if len(repo.startedRuns) != 1 {
		t.Fatalf("expected a fresh run opened, got %d", len(repo.startedRuns))
	}
}

func TestPersister_StoppedWithoutRunIsIgnored(t *testing.T) {
	repo := &recordingRepo{}
	p := NewPersister(repo)

	p.SessionStateChanged(event.StateChange{StationID: "kxyz", State: string(session.StateStopped), ChangedAt: time.Now()})
	if len(repo.finishedRuns) != 0 {
		t.Fatalf("expected no finished runs, got %d", len(repo.finishedRuns))
	}
}
