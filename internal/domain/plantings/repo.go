package plantings

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/fishfarm/internal/infra/db"
)

func Get(ctx context.Context, q db.Querier, id int64) (*Planting, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, breed, created_at
		FROM plantings
		WHERE id = $1
	`, id)
	var p Planting
	if err := row.Scan(&p.ID, &p.Name, &p.Breed, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name, breed string) (*Planting, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO plantings (name, breed)
		VALUES ($1, $2)
		RETURNING id, name, breed, created_at
	`, strings.TrimSpace(name), strings.TrimSpace(breed))

	var p Planting
	if err := row.Scan(&p.ID, &p.Name, &p.Breed, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Planting, error) {
	return Get(ctx, r.pool, id)
}

func (r *Repo) List(ctx context.Context) ([]Planting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, breed, created_at
		FROM plantings
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Planting
	for rows.Next() {
		var p Planting
		if err := rows.Scan(&p.ID, &p.Name, &p.Breed, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
