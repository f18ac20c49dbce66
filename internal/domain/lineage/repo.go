package lineage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/fishfarm/internal/infra/db"
)

func loadComponents(ctx context.Context, q db.Querier, mixID int64) ([]Component, error) {
	rows, err := q.Query(ctx, `
		SELECT c.planting_id, p.name, c.percentage
		FROM mixed_planting_components c
		JOIN plantings p ON p.id = c.planting_id
		WHERE c.mixed_planting_id = $1
		ORDER BY c.position
	`, mixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.PlantingID, &c.Name, &c.Percentage); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetMix(ctx context.Context, q db.Querier, id int64) (*Mix, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, breed, created_at
		FROM mixed_plantings
		WHERE id = $1
	`, id)
	var m Mix
	if err := row.Scan(&m.ID, &m.Name, &m.Breed, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	comps, err := loadComponents(ctx, q, m.ID)
	if err != nil {
		return nil, err
	}
	m.Components = comps
	return &m, nil
}

// FindBySignature resolves an existing mix by its planting-id set. Two blends
// of the same plantings at different ratios land on the same row.
func FindBySignature(ctx context.Context, q db.Querier, sig string) (*Mix, error) {
	row := q.QueryRow(ctx, `
		SELECT id, name, breed, created_at
		FROM mixed_plantings
		WHERE signature = $1
	`, sig)
	var m Mix
	if err := row.Scan(&m.ID, &m.Name, &m.Breed, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	comps, err := loadComponents(ctx, q, m.ID)
	if err != nil {
		return nil, err
	}
	m.Components = comps
	return &m, nil
}

func InsertMix(ctx context.Context, q db.Querier, name string, breed *string, comps []Component) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO mixed_plantings (name, breed, signature)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, breed, Signature(comps)).Scan(&id)
	if err != nil {
		return 0, err
	}
	for i, c := range comps {
		if _, err := q.Exec(ctx, `
			INSERT INTO mixed_planting_components (mixed_planting_id, planting_id, percentage, position)
			VALUES ($1, $2, $3, $4)
		`, id, c.PlantingID, c.Percentage, i); err != nil {
			return 0, err
		}
	}
	return id, nil
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByID(ctx context.Context, id int64) (*Mix, error) {
	return GetMix(ctx, r.pool, id)
}
