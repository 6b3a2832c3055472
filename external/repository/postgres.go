package repository

import (
	"context"
	"time"

	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) StartStationRun(ctx context.Context, input repository.StartStationRunInput) (*repository.StationRun, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO station_runs (station_id, name, stream_url, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id, station_id, name, stream_url, started_at, ended_at, status, reconnects`,
		input.StationID, input.Name, input.StreamURL, input.StartedAt)
	return scanRun(row)
}

func (r *PostgresRepository) FinishStationRun(ctx context.Context, input repository.FinishStationRunInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE station_runs
		 SET status = 'stopped', ended_at = $2, reconnects = $3, updated_at = NOW()
		 WHERE id = $1`,
		input.RunID, input.EndedAt, input.Reconnects)
	return err
}

func (r *PostgresRepository) IncrementRunReconnects(ctx context.Context, runID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE station_runs SET reconnects = reconnects + 1, updated_at = NOW() WHERE id = $1`,
		runID)
	return err
}

func (r *PostgresRepository) GetRunningStationRun(ctx context.Context, stationID string) (*repository.StationRun, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, station_id, name, stream_url, started_at, ended_at, status, reconnects
		 FROM station_runs WHERE station_id = $1 AND status = 'running'
		 ORDER BY started_at DESC LIMIT 1`,
		stationID)
	run, err := scanRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

func (r *PostgresRepository) InsertTranscript(ctx context.Context, input repository.InsertTranscriptInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transcripts (run_id, station_id, sequence_number, text, produced_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.RunID, input.StationID, input.SequenceNumber, input.Text, input.ProducedAt)
	return err
}

func (r *PostgresRepository) ListTranscriptsByRunID(ctx context.Context, runID string) ([]repository.Transcript, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_id, station_id, sequence_number, text, produced_at, created_at
		 FROM transcripts WHERE run_id = $1 ORDER BY sequence_number ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Transcript
	for rows.Next() {
		var t repository.Transcript
		if err := rows.Scan(&t.ID, &t.RunID, &t.StationID, &t.SequenceNumber, &t.Text, &t.ProducedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) InsertContestMatch(ctx context.Context, input repository.InsertContestMatchInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contest_matches (run_id, station_id, sequence_number, matched_keyword, text, detected_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.RunID, input.StationID, input.SequenceNumber, input.MatchedKeyword, input.Text, input.DetectedAt)
	return err
}

func (r *PostgresRepository) ListRecentContestMatches(ctx context.Context, limit int) ([]repository.ContestMatch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_id, station_id, sequence_number, matched_keyword, text, detected_at, created_at
		 FROM contest_matches ORDER BY detected_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.ContestMatch
	for rows.Next() {
		var m repository.ContestMatch
		if err := rows.Scan(&m.ID, &m.RunID, &m.StationID, &m.SequenceNumber, &m.MatchedKeyword, &m.Text, &m.DetectedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanRun(row pgx.Row) (*repository.StationRun, error) {
	var run repository.StationRun
	var endedAt *time.Time
	err := row.Scan(&run.ID, &run.StationID, &run.Name, &run.StreamURL,
		&run.StartedAt, &endedAt, &run.Status, &run.Reconnects)
	if err != nil {
		return nil, err
	}
	run.EndedAt = endedAt
	return &run, nil
}
