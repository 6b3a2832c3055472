package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE run_status AS ENUM ('running', 'stopped'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS station_runs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		station_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		stream_url TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status run_status NOT NULL DEFAULT 'running',
		reconnects BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_station_runs_running ON station_runs (station_id) WHERE status = 'running'`,
	`CREATE TABLE IF NOT EXISTS transcripts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		run_id UUID REFERENCES station_runs(id) ON DELETE SET NULL,
		station_id TEXT NOT NULL,
		sequence_number BIGINT NOT NULL,
		text TEXT NOT NULL,
		produced_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_run ON transcripts (run_id, sequence_number)`,
	`CREATE INDEX IF NOT EXISTS idx_transcripts_station ON transcripts (station_id, produced_at)`,
	`CREATE TABLE IF NOT EXISTS contest_matches (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		run_id UUID REFERENCES station_runs(id) ON DELETE SET NULL,
		station_id TEXT NOT NULL,
		sequence_number BIGINT NOT NULL,
		matched_keyword TEXT NOT NULL,
		text TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contest_matches_detected ON contest_matches (detected_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contest_matches_station ON contest_matches (station_id, detected_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
