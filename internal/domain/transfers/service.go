package transfers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/lineage"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
	"github.com/Spok95/fishfarm/internal/infra/audit"
)

// Reader is the lock-free lookup surface shared by preview and the
// transactional path.
type Reader interface {
	lineage.Reader
	Session(ctx context.Context, id int64) (*sessions.Session, error)
	Removed(ctx context.Context, sessionID int64) (harvests.Removed, error)
}

// TxOps is the per-transaction surface. LockSession takes a row lock held for
// the duration of the transaction; the service always locks in ascending id
// order.
type TxOps interface {
	Reader
	LockSession(ctx context.Context, id int64) (*sessions.Session, error)
	ApplyDelta(ctx context.Context, sessionID int64, massDelta float64, countDelta int64) error
	SetLineage(ctx context.Context, sessionID int64, plantingID, mixedPlantingID *int64) error
	FindMixBySignature(ctx context.Context, sig string) (*lineage.Mix, error)
	CreateMix(ctx context.Context, name string, breed *string, comps []lineage.Component) (int64, error)
	InsertTransfer(ctx context.Context, t *Transfer) (int64, error)
	TransferForUpdate(ctx context.Context, id int64) (*Transfer, error)
	MarkReverted(ctx context.Context, id, actorID int64, at time.Time) error
}

// Ledger is the persistence contract the orchestrator runs against. WithinTx
// executes fn atomically: on error nothing is visible.
type Ledger interface {
	Reader
	WithinTx(ctx context.Context, fn func(ops TxOps) error) error
	GetTransfer(ctx context.Context, id int64) (*Transfer, error)
	ListTransfers(ctx context.Context) ([]Transfer, error)
}

type Service struct {
	ledger Ledger
	audit  audit.Sink
	log    *slog.Logger
}

func NewService(ledger Ledger, sink audit.Sink, log *slog.Logger) *Service {
	return &Service{ledger: ledger, audit: sink, log: log}
}

func parseRequest(req CreateRequest) (time.Time, error) {
	date, err := time.Parse("2006-01-02", req.TransplantDate)
	if err != nil {
		return time.Time{}, apperr.Validation("transplant_date", "expected YYYY-MM-DD")
	}
	if req.Weight <= 0 {
		return time.Time{}, apperr.Validation("weight", "must be > 0")
	}
	if req.FishCount <= 0 {
		return time.Time{}, apperr.Validation("fish_count", "must be > 0")
	}
	if req.SourceSessionID == req.RecipientSessionID {
		return time.Time{}, apperr.Domain("source and recipient session must differ")
	}
	return date, nil
}

// blendPlan is the precomputed outcome of merging two lineages.
type blendPlan struct {
	willBlend  bool
	name       string
	breed      *string
	components []lineage.Component
}

func buildPlan(ctx context.Context, r Reader, src, rcpt *sessions.Session, weight float64) (blendPlan, error) {
	srcView, err := lineage.Resolve(ctx, r, src)
	if err != nil {
		return blendPlan{}, err
	}
	rcptView, err := lineage.Resolve(ctx, r, rcpt)
	if err != nil {
		return blendPlan{}, err
	}

	// Same lineage on both sides: the recipient simply grows.
	if srcView.IdentityKey == rcptView.IdentityKey {
		return blendPlan{
			name:       rcptView.DisplayName,
			breed:      rcptView.Breed,
			components: rcptView.Components,
		}, nil
	}

	rcptShare, srcShare, err := lineage.Shares(rcpt.BaseMass, weight)
	if err != nil {
		return blendPlan{}, err
	}
	merged := lineage.Normalize(lineage.Merge(
		lineage.Distribute(rcptView.Components, rcptShare),
		lineage.Distribute(srcView.Components, srcShare),
	))
	return blendPlan{
		willBlend:  true,
		name:       lineage.BlendName(rcptView.DisplayName, srcView.DisplayName, rcptShare, srcShare),
		breed:      lineage.InheritBreed(rcptView.Breed, srcView.Breed),
		components: merged,
	}, nil
}

// lockPair locks both session rows in ascending id order.
func lockPair(ctx context.Context, ops TxOps, aID, bID int64) (a, b *sessions.Session, err error) {
	first, second := aID, bID
	if first > second {
		first, second = second, first
	}
	locked := make(map[int64]*sessions.Session, 2)
	for _, id := range []int64{first, second} {
		s, err := ops.LockSession(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if s == nil {
			return nil, nil, apperr.NotFound("session", id)
		}
		locked[id] = s
	}
	return locked[aID], locked[bID], nil
}

func (s *Service) available(ctx context.Context, r Reader, sess *sessions.Session) (sessions.Availability, error) {
	rm, err := r.Removed(ctx, sess.ID)
	if err != nil {
		return sessions.Availability{}, err
	}
	return sessions.Available(sess, rm.Weight, rm.Count), nil
}

// Create moves weight/fishCount from the source session to the recipient,
// blending lineages when they differ, inside one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest, actorID int64) (int64, error) {
	date, err := parseRequest(req)
	if err != nil {
		transfersRejected.Inc()
		return 0, err
	}

	var transferID int64
	err = s.ledger.WithinTx(ctx, func(ops TxOps) error {
		src, rcpt, err := lockPair(ctx, ops, req.SourceSessionID, req.RecipientSessionID)
		if err != nil {
			return err
		}
		if src.Completed {
			return apperr.Domain("source session %d is completed", src.ID)
		}
		if rcpt.Completed {
			return apperr.Domain("recipient session %d is completed", rcpt.ID)
		}

		avail, err := s.available(ctx, ops, src)
		if err != nil {
			return err
		}
		if req.Weight > avail.Mass {
			return apperr.Domain("insufficient biomass: have %.2f kg, want %.2f kg", avail.Mass, req.Weight)
		}
		if req.FishCount > avail.Count {
			return apperr.Domain("insufficient count: have %d, want %d", avail.Count, req.FishCount)
		}

		plan, err := buildPlan(ctx, ops, src, rcpt, req.Weight)
		if err != nil {
			return err
		}

		var mixID *int64
		if plan.willBlend {
			sig := lineage.Signature(plan.components)
			existing, err := ops.FindMixBySignature(ctx, sig)
			if err != nil {
				return err
			}
			if existing != nil {
				// Same planting set at a different ratio reuses the mix as-is.
				mixID = &existing.ID
			} else {
				id, err := ops.CreateMix(ctx, plan.name, plan.breed, plan.components)
				if err != nil {
					return err
				}
				mixID = &id
			}
		}

		t := &Transfer{
			TransplantDate:      date,
			SourceSessionID:     src.ID,
			RecipientSessionID:  rcpt.ID,
			Weight:              req.Weight,
			FishCount:           req.FishCount,
			PrevPlantingID:      rcpt.PlantingID,
			PrevMixedPlantingID: rcpt.MixedPlantingID,
			CreatedBy:           actorID,
		}
		transferID, err = ops.InsertTransfer(ctx, t)
		if err != nil {
			return err
		}

		if err := ops.ApplyDelta(ctx, src.ID, -req.Weight, -req.FishCount); err != nil {
			return err
		}
		if err := ops.ApplyDelta(ctx, rcpt.ID, req.Weight, req.FishCount); err != nil {
			return err
		}
		if mixID != nil && (rcpt.MixedPlantingID == nil || *rcpt.MixedPlantingID != *mixID) {
			if err := ops.SetLineage(ctx, rcpt.ID, nil, mixID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		transfersRejected.Inc()
		return 0, err
	}

	transfersCommitted.Inc()
	s.log.Info("transfer committed",
		"transfer_id", transferID,
		"source", req.SourceSessionID,
		"recipient", req.RecipientSessionID,
		"weight", req.Weight,
		"fish_count", req.FishCount,
	)
	s.audit.Record(ctx, audit.Event{
		Action:      "transfer.create",
		EntityType:  "transfer",
		EntityID:    transferID,
		ActorID:     actorID,
		Description: fmt.Sprintf("moved %.2f kg / %d fish from session %d to %d", req.Weight, req.FishCount, req.SourceSessionID, req.RecipientSessionID),
		Payload: map[string]any{
			"source_session_id":    req.SourceSessionID,
			"recipient_session_id": req.RecipientSessionID,
			"weight":               req.Weight,
			"fish_count":           req.FishCount,
		},
	})
	return transferID, nil
}

// Revert applies the exact inverse of a prior transfer: balances move back and
// the recipient's lineage references are restored from the snapshot.
func (s *Service) Revert(ctx context.Context, id, actorID int64) error {
	var t *Transfer
	err := s.ledger.WithinTx(ctx, func(ops TxOps) error {
		var err error
		t, err = ops.TransferForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return apperr.NotFound("transfer", id)
		}
		if t.Reverted {
			return apperr.Domain("transfer %d already reverted", id)
		}

		src, rcpt, err := lockPair(ctx, ops, t.SourceSessionID, t.RecipientSessionID)
		if err != nil {
			return err
		}
		if src.Completed {
			return apperr.Domain("source session %d is completed", src.ID)
		}
		if rcpt.Completed {
			return apperr.Domain("recipient session %d is completed", rcpt.ID)
		}

		// The recipient may have re-transferred or harvested since.
		avail, err := s.available(ctx, ops, rcpt)
		if err != nil {
			return err
		}
		if t.Weight > avail.Mass || t.FishCount > avail.Count {
			return apperr.Domain("recipient session %d no longer holds the transferred amount", rcpt.ID)
		}

		if err := ops.ApplyDelta(ctx, rcpt.ID, -t.Weight, -t.FishCount); err != nil {
			return err
		}
		if err := ops.ApplyDelta(ctx, src.ID, t.Weight, t.FishCount); err != nil {
			return err
		}
		if err := ops.SetLineage(ctx, rcpt.ID, t.PrevPlantingID, t.PrevMixedPlantingID); err != nil {
			return err
		}
		return ops.MarkReverted(ctx, id, actorID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	transfersReverted.Inc()
	s.log.Info("transfer reverted", "transfer_id", id, "actor", actorID)
	s.audit.Record(ctx, audit.Event{
		Action:      "transfer.revert",
		EntityType:  "transfer",
		EntityID:    id,
		ActorID:     actorID,
		Description: fmt.Sprintf("reverted transfer of %.2f kg / %d fish from session %d to %d", t.Weight, t.FishCount, t.SourceSessionID, t.RecipientSessionID),
	})
	return nil
}

// PreviewTransfer runs the same algorithm as Create without locks or
// mutation, so users can see the resulting blend before committing.
func (s *Service) PreviewTransfer(ctx context.Context, req CreateRequest) (*Preview, error) {
	if _, err := parseRequest(req); err != nil {
		return nil, err
	}

	src, err := s.ledger.Session(ctx, req.SourceSessionID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, apperr.NotFound("session", req.SourceSessionID)
	}
	rcpt, err := s.ledger.Session(ctx, req.RecipientSessionID)
	if err != nil {
		return nil, err
	}
	if rcpt == nil {
		return nil, apperr.NotFound("session", req.RecipientSessionID)
	}

	plan, err := buildPlan(ctx, s.ledger, src, rcpt, req.Weight)
	if err != nil {
		return nil, err
	}
	out := &Preview{
		WillBlend:     plan.willBlend,
		ResultingName: plan.name,
		Components:    make([]PreviewComponent, 0, len(plan.components)),
	}
	for _, c := range plan.components {
		out.Components = append(out.Components, PreviewComponent{
			PlantingID: c.PlantingID,
			Name:       c.Name,
			Percentage: c.Percentage,
		})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Transfer, error) {
	t, err := s.ledger.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("transfer", id)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]Transfer, error) {
	return s.ledger.ListTransfers(ctx)
}
