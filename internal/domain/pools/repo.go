package pools

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name string, volumeM3 float64) (*Pool, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pools (name, volume_m3, active)
		VALUES ($1, $2, TRUE)
		RETURNING id, name, volume_m3, active, created_at
	`, strings.TrimSpace(name), volumeM3)

	var p Pool
	if err := row.Scan(&p.ID, &p.Name, &p.VolumeM3, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Pool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, volume_m3, active, created_at
		FROM pools
		WHERE id = $1
	`, id)
	var p Pool
	if err := row.Scan(&p.ID, &p.Name, &p.VolumeM3, &p.Active, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Pool, error) {
	q := `
		SELECT id, name, volume_m3, active, created_at
		FROM pools
		ORDER BY name`
	if onlyActive {
		q = `
		SELECT id, name, volume_m3, active, created_at
		FROM pools
		WHERE active = TRUE
		ORDER BY name`
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pool
	for rows.Next() {
		var p Pool
		if err := rows.Scan(&p.ID, &p.Name, &p.VolumeM3, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE pools SET active = $2 WHERE id = $1
	`, id, active)
	return err
}
