package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, name string, proteinPct float64) (*Feed, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO feeds (name, protein_pct, active)
		VALUES ($1, $2, TRUE)
		RETURNING id, name, protein_pct, active, created_at
	`, strings.TrimSpace(name), proteinPct)

	var f Feed
	if err := row.Scan(&f.ID, &f.Name, &f.ProteinPct, &f.Active, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Feed, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, protein_pct, active, created_at
		FROM feeds
		WHERE id = $1
	`, id)
	var f Feed
	if err := row.Scan(&f.ID, &f.Name, &f.ProteinPct, &f.Active, &f.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) List(ctx context.Context, onlyActive bool) ([]Feed, error) {
	q := `SELECT id, name, protein_pct, active, created_at FROM feeds ORDER BY name`
	if onlyActive {
		q = `SELECT id, name, protein_pct, active, created_at FROM feeds WHERE active = TRUE ORDER BY name`
	}
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feed
	for rows.Next() {
		var f Feed
		if err := rows.Scan(&f.ID, &f.Name, &f.ProteinPct, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) RecordFeeding(ctx context.Context, sessionID, feedID int64, amountKg float64, fedAt time.Time, actorID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO feedings (session_id, feed_id, amount_kg, fed_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sessionID, feedID, amountKg, fedAt, actorID).Scan(&id)
	return id, err
}

func (r *Repo) ListFeedings(ctx context.Context, sessionID int64) ([]Feeding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, feed_id, amount_kg, fed_at, created_by, created_at
		FROM feedings
		WHERE session_id = $1
		ORDER BY fed_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feeding
	for rows.Next() {
		var f Feeding
		if err := rows.Scan(&f.ID, &f.SessionID, &f.FeedID, &f.AmountKg, &f.FedAt, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
