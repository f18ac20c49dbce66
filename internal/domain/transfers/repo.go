package transfers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/lineage"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
	"github.com/Spok95/fishfarm/internal/infra/db"
)

const transferCols = `id, transplant_date, source_session_id, recipient_session_id, weight, fish_count,
	prev_planting_id, prev_mixed_planting_id, reverted, reverted_by, reverted_at, created_by, created_at`

func scanTransfer(row pgx.Row) (*Transfer, error) {
	var t Transfer
	if err := row.Scan(
		&t.ID,
		&t.TransplantDate,
		&t.SourceSessionID,
		&t.RecipientSessionID,
		&t.Weight,
		&t.FishCount,
		&t.PrevPlantingID,
		&t.PrevMixedPlantingID,
		&t.Reverted,
		&t.RevertedBy,
		&t.RevertedAt,
		&t.CreatedBy,
		&t.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// reads implements the lock-free Reader surface over any Querier, so the same
// code serves both the pool (preview, list) and an open transaction.
type reads struct{ q db.Querier }

func (r reads) Session(ctx context.Context, id int64) (*sessions.Session, error) {
	return sessions.Get(ctx, r.q, id)
}

func (r reads) Removed(ctx context.Context, sessionID int64) (harvests.Removed, error) {
	return harvests.RemovedTotals(ctx, r.q, sessionID)
}

func (r reads) Planting(ctx context.Context, id int64) (*plantings.Planting, error) {
	return plantings.Get(ctx, r.q, id)
}

func (r reads) Mix(ctx context.Context, id int64) (*lineage.Mix, error) {
	return lineage.GetMix(ctx, r.q, id)
}

// Repo is the pgx-backed Ledger.
type Repo struct {
	reads
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{reads: reads{q: pool}, pool: pool}
}

func (r *Repo) WithinTx(ctx context.Context, fn func(ops TxOps) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txOps{reads: reads{q: tx}, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetTransfer(ctx context.Context, id int64) (*Transfer, error) {
	return scanTransfer(r.pool.QueryRow(ctx, `SELECT `+transferCols+` FROM transfers WHERE id = $1`, id))
}

func (r *Repo) ListTransfers(ctx context.Context) ([]Transfer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transferCols+` FROM transfers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transfer
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(
			&t.ID,
			&t.TransplantDate,
			&t.SourceSessionID,
			&t.RecipientSessionID,
			&t.Weight,
			&t.FishCount,
			&t.PrevPlantingID,
			&t.PrevMixedPlantingID,
			&t.Reverted,
			&t.RevertedBy,
			&t.RevertedAt,
			&t.CreatedBy,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type txOps struct {
	reads
	tx pgx.Tx
}

func (o *txOps) LockSession(ctx context.Context, id int64) (*sessions.Session, error) {
	return sessions.Lock(ctx, o.tx, id)
}

func (o *txOps) ApplyDelta(ctx context.Context, sessionID int64, massDelta float64, countDelta int64) error {
	return sessions.ApplyDelta(ctx, o.tx, sessionID, massDelta, countDelta)
}

func (o *txOps) SetLineage(ctx context.Context, sessionID int64, plantingID, mixedPlantingID *int64) error {
	return sessions.SetLineage(ctx, o.tx, sessionID, plantingID, mixedPlantingID)
}

func (o *txOps) FindMixBySignature(ctx context.Context, sig string) (*lineage.Mix, error) {
	return lineage.FindBySignature(ctx, o.tx, sig)
}

func (o *txOps) CreateMix(ctx context.Context, name string, breed *string, comps []lineage.Component) (int64, error) {
	return lineage.InsertMix(ctx, o.tx, name, breed, comps)
}

func (o *txOps) InsertTransfer(ctx context.Context, t *Transfer) (int64, error) {
	var id int64
	err := o.tx.QueryRow(ctx, `
		INSERT INTO transfers
			(transplant_date, source_session_id, recipient_session_id, weight, fish_count,
			 prev_planting_id, prev_mixed_planting_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, t.TransplantDate, t.SourceSessionID, t.RecipientSessionID, t.Weight, t.FishCount,
		t.PrevPlantingID, t.PrevMixedPlantingID, t.CreatedBy).Scan(&id)
	return id, err
}

func (o *txOps) TransferForUpdate(ctx context.Context, id int64) (*Transfer, error) {
	return scanTransfer(o.tx.QueryRow(ctx, `SELECT `+transferCols+` FROM transfers WHERE id = $1 FOR UPDATE`, id))
}

func (o *txOps) MarkReverted(ctx context.Context, id, actorID int64, at time.Time) error {
	tag, err := o.tx.Exec(ctx, `
		UPDATE transfers
		SET reverted = TRUE, reverted_by = $2, reverted_at = $3
		WHERE id = $1 AND reverted = FALSE
	`, id, actorID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Domain("transfer %d already reverted", id)
	}
	return nil
}
