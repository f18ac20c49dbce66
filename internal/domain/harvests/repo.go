package harvests

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/fishfarm/internal/infra/db"
)

// RemovedTotals sums both removal logs for one session. Consumed by the
// availability check; the running balance itself is never touched by removals.
func RemovedTotals(ctx context.Context, q db.Querier, sessionID int64) (Removed, error) {
	var rm Removed
	err := q.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(weight)     FROM harvests    WHERE session_id = $1), 0) +
			COALESCE((SELECT SUM(weight)     FROM mortalities WHERE session_id = $1), 0),
			COALESCE((SELECT SUM(fish_count) FROM harvests    WHERE session_id = $1), 0) +
			COALESCE((SELECT SUM(fish_count) FROM mortalities WHERE session_id = $1), 0)
	`, sessionID).Scan(&rm.Weight, &rm.Count)
	return rm, err
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) RecordHarvest(ctx context.Context, sessionID int64, weight float64, fishCount int64, harvestedAt time.Time, actorID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO harvests (session_id, weight, fish_count, harvested_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sessionID, weight, fishCount, harvestedAt, actorID).Scan(&id)
	return id, err
}

func (r *Repo) RecordMortality(ctx context.Context, sessionID int64, weight float64, fishCount int64, cause string, recordedAt time.Time, actorID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO mortalities (session_id, weight, fish_count, cause, recorded_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, sessionID, weight, fishCount, cause, recordedAt, actorID).Scan(&id)
	return id, err
}

func (r *Repo) SumRemoved(ctx context.Context, sessionID int64) (Removed, error) {
	return RemovedTotals(ctx, r.pool, sessionID)
}

func (r *Repo) ListHarvests(ctx context.Context, sessionID int64) ([]Harvest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, weight, fish_count, harvested_at, created_by, created_at
		FROM harvests
		WHERE session_id = $1
		ORDER BY harvested_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Harvest
	for rows.Next() {
		var h Harvest
		if err := rows.Scan(&h.ID, &h.SessionID, &h.Weight, &h.FishCount, &h.HarvestedAt, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
