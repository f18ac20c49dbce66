package sessions

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/fishfarm/internal/infra/db"
)

const cols = `id, pool_id, planting_id, mixed_planting_id, base_mass, base_count, completed, started_at, completed_at, created_at`

func scan(row pgx.Row) (*Session, error) {
	var s Session
	if err := row.Scan(
		&s.ID,
		&s.PoolID,
		&s.PlantingID,
		&s.MixedPlantingID,
		&s.BaseMass,
		&s.BaseCount,
		&s.Completed,
		&s.StartedAt,
		&s.CompletedAt,
		&s.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func Get(ctx context.Context, q db.Querier, id int64) (*Session, error) {
	return scan(q.QueryRow(ctx, `SELECT `+cols+` FROM sessions WHERE id = $1`, id))
}

// Lock reads one session row under FOR UPDATE. Callers locking several rows
// must do so in ascending id order to avoid deadlocks between opposing
// transfers on the same pair.
func Lock(ctx context.Context, q db.Querier, id int64) (*Session, error) {
	return scan(q.QueryRow(ctx, `SELECT `+cols+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
}

// ApplyDelta shifts the running balance, floored at zero.
func ApplyDelta(ctx context.Context, q db.Querier, id int64, massDelta float64, countDelta int64) error {
	_, err := q.Exec(ctx, `
		UPDATE sessions
		SET base_mass  = GREATEST(base_mass + $2, 0),
		    base_count = GREATEST(base_count + $3, 0)
		WHERE id = $1
	`, id, massDelta, countDelta)
	return err
}

func SetLineage(ctx context.Context, q db.Querier, id int64, plantingID, mixedPlantingID *int64) error {
	_, err := q.Exec(ctx, `
		UPDATE sessions
		SET planting_id = $2, mixed_planting_id = $3
		WHERE id = $1
	`, id, plantingID, mixedPlantingID)
	return err
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByID(ctx context.Context, id int64) (*Session, error) {
	return Get(ctx, r.pool, id)
}

func (r *Repo) Create(ctx context.Context, poolID, plantingID int64, baseMass float64, baseCount int64, startedAt time.Time) (*Session, error) {
	return scan(r.pool.QueryRow(ctx, `
		INSERT INTO sessions (pool_id, planting_id, base_mass, base_count, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+cols+`
	`, poolID, plantingID, baseMass, baseCount, startedAt))
}

func (r *Repo) List(ctx context.Context, onlyOpen bool) ([]Session, error) {
	q := `SELECT ` + cols + ` FROM sessions ORDER BY started_at DESC, id DESC`
	if onlyOpen {
		q = `SELECT ` + cols + ` FROM sessions WHERE completed = FALSE ORDER BY started_at DESC, id DESC`
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(
			&s.ID,
			&s.PoolID,
			&s.PlantingID,
			&s.MixedPlantingID,
			&s.BaseMass,
			&s.BaseCount,
			&s.Completed,
			&s.StartedAt,
			&s.CompletedAt,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Complete freezes the session; no further transfers in or out.
func (r *Repo) Complete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET completed = TRUE, completed_at = NOW()
		WHERE id = $1 AND completed = FALSE
	`, id)
	return err
}
