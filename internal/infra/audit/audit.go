package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	Action      string
	EntityType  string
	EntityID    int64
	ActorID     int64
	Description string
	Payload     map[string]any
}

// Sink receives audit events. Implementations are fire-and-forget: a failed
// write must never reach the caller.
type Sink interface {
	Record(ctx context.Context, e Event)
}

type PG struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPG(pool *pgxpool.Pool, log *slog.Logger) *PG {
	return &PG{pool: pool, log: log}
}

func (s *PG) Record(ctx context.Context, e Event) {
	pb, _ := json.Marshal(e.Payload)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (action, entity_type, entity_id, actor_id, description, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.Action, e.EntityType, e.EntityID, e.ActorID, e.Description, pb)
	if err != nil {
		s.log.Warn("audit write failed", "action", e.Action, "entity", e.EntityType, "err", err)
	}
}

type Noop struct{}

func (Noop) Record(context.Context, Event) {}
