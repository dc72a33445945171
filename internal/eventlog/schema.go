package eventlog

import "context"

// schemaSQL is deliberately a single CREATE-TABLE-IF-NOT-EXISTS pair rather
// than an incremental migration list: at this scale (two tables, no
// backfills expected) a migrations framework is unwarranted weight.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS trigger_fires (
	id           BIGSERIAL PRIMARY KEY,
	trigger_id   TEXT NOT NULL,
	trigger_name TEXT NOT NULL,
	character    TEXT NOT NULL,
	matched_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS trigger_fires_trigger_id_idx ON trigger_fires (trigger_id);
CREATE INDEX IF NOT EXISTS trigger_fires_matched_at_idx ON trigger_fires (matched_at);

CREATE TABLE IF NOT EXISTS timer_events (
	id            BIGSERIAL PRIMARY KEY,
	kind          TEXT NOT NULL,
	live_timer_id TEXT NOT NULL,
	trigger_id    TEXT NOT NULL,
	name          TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS timer_events_live_timer_id_idx ON timer_events (live_timer_id);
`

// InitSchema applies schemaSQL if the trigger_fires table doesn't exist yet.
func (db *DB) InitSchema(ctx context.Context) error {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = 'trigger_fires')`,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		db.log.Debug().Msg("eventlog schema already initialized, skipping")
		return nil
	}

	db.log.Info().Msg("fresh eventlog database detected — applying schema")
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return err
	}
	db.log.Info().Msg("eventlog schema applied successfully")
	return nil
}
