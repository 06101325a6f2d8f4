// Package postgres persists round history via pgx.
package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/sync/singleflight"

	"quizhub/internal/infra/historylog"
)

// Recorder writes RoundRecords to the round_history table.
type Recorder struct {
	pool *pgxpool.Pool
	sf   singleflight.Group
}

// New returns a Recorder backed by pool. Callers must run the migrations in
// ./migrations before using it (see internal/cli's migrate command).
func New(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record inserts rec. Errors are logged, never returned — a failed write
// must never affect round outcomes (historylog.Recorder's contract).
func (r *Recorder) Record(ctx context.Context, rec historylog.RoundRecord) {
	key := rec.QuestionID
	_, _, _ = r.sf.Do(key, func() (any, error) {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO round_history
				(question_id, expression, answer, difficulty, winner_conn_id, submission_count, started_at, locked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (question_id) DO NOTHING`,
			rec.QuestionID, rec.Expression, rec.Answer, rec.Difficulty,
			rec.WinnerConnID, rec.SubmissionCount, rec.StartedAt, rec.LockedAt,
		)
		if err != nil {
			log.Printf("historylog: failed to record round %s: %v", rec.QuestionID, err)
			return nil, fmt.Errorf("insert round_history: %w", err)
		}
		return nil, nil
	})
}
