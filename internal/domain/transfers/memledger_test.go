package transfers

import (
	"context"
	"time"

	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/lineage"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
)

// memLedger is an in-memory Ledger. WithinTx snapshots the whole state and
// restores it when fn fails, mirroring a rolled-back transaction.
type memLedger struct {
	sessions  map[int64]*sessions.Session
	plantings map[int64]*plantings.Planting
	mixes     map[int64]*lineage.Mix
	sigIndex  map[string]int64
	transfers map[int64]*Transfer
	removed   map[int64]harvests.Removed

	nextMixID      int64
	nextTransferID int64
}

func newMemLedger() *memLedger {
	return &memLedger{
		sessions:  map[int64]*sessions.Session{},
		plantings: map[int64]*plantings.Planting{},
		mixes:     map[int64]*lineage.Mix{},
		sigIndex:  map[string]int64{},
		transfers: map[int64]*Transfer{},
		removed:   map[int64]harvests.Removed{},
	}
}

func (m *memLedger) snapshot() *memLedger {
	c := newMemLedger()
	c.nextMixID = m.nextMixID
	c.nextTransferID = m.nextTransferID
	for id, s := range m.sessions {
		cp := *s
		if s.PlantingID != nil {
			v := *s.PlantingID
			cp.PlantingID = &v
		}
		if s.MixedPlantingID != nil {
			v := *s.MixedPlantingID
			cp.MixedPlantingID = &v
		}
		c.sessions[id] = &cp
	}
	for id, p := range m.plantings {
		cp := *p
		c.plantings[id] = &cp
	}
	for id, mx := range m.mixes {
		cp := *mx
		cp.Components = append([]lineage.Component(nil), mx.Components...)
		c.mixes[id] = &cp
	}
	for sig, id := range m.sigIndex {
		c.sigIndex[sig] = id
	}
	for id, t := range m.transfers {
		cp := *t
		c.transfers[id] = &cp
	}
	for id, rm := range m.removed {
		c.removed[id] = rm
	}
	return c
}

func (m *memLedger) restore(s *memLedger) {
	m.sessions = s.sessions
	m.plantings = s.plantings
	m.mixes = s.mixes
	m.sigIndex = s.sigIndex
	m.transfers = s.transfers
	m.removed = s.removed
	m.nextMixID = s.nextMixID
	m.nextTransferID = s.nextTransferID
}

func (m *memLedger) Session(_ context.Context, id int64) (*sessions.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memLedger) Removed(_ context.Context, sessionID int64) (harvests.Removed, error) {
	return m.removed[sessionID], nil
}

func (m *memLedger) Planting(_ context.Context, id int64) (*plantings.Planting, error) {
	p, ok := m.plantings[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memLedger) Mix(_ context.Context, id int64) (*lineage.Mix, error) {
	mx, ok := m.mixes[id]
	if !ok {
		return nil, nil
	}
	cp := *mx
	cp.Components = append([]lineage.Component(nil), mx.Components...)
	return &cp, nil
}

func (m *memLedger) WithinTx(_ context.Context, fn func(ops TxOps) error) error {
	snap := m.snapshot()
	if err := fn(&memTxOps{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memLedger) GetTransfer(_ context.Context, id int64) (*Transfer, error) {
	t, ok := m.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memLedger) ListTransfers(_ context.Context) ([]Transfer, error) {
	out := make([]Transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		out = append(out, *t)
	}
	return out, nil
}

type memTxOps struct{ m *memLedger }

func (o *memTxOps) Session(ctx context.Context, id int64) (*sessions.Session, error) {
	return o.m.Session(ctx, id)
}

func (o *memTxOps) Removed(ctx context.Context, sessionID int64) (harvests.Removed, error) {
	return o.m.Removed(ctx, sessionID)
}

func (o *memTxOps) Planting(ctx context.Context, id int64) (*plantings.Planting, error) {
	return o.m.Planting(ctx, id)
}

func (o *memTxOps) Mix(ctx context.Context, id int64) (*lineage.Mix, error) {
	return o.m.Mix(ctx, id)
}

func (o *memTxOps) LockSession(ctx context.Context, id int64) (*sessions.Session, error) {
	return o.m.Session(ctx, id)
}

func (o *memTxOps) ApplyDelta(_ context.Context, sessionID int64, massDelta float64, countDelta int64) error {
	s := o.m.sessions[sessionID]
	s.BaseMass += massDelta
	s.BaseCount += countDelta
	if s.BaseMass < 0 {
		s.BaseMass = 0
	}
	if s.BaseCount < 0 {
		s.BaseCount = 0
	}
	return nil
}

func (o *memTxOps) SetLineage(_ context.Context, sessionID int64, plantingID, mixedPlantingID *int64) error {
	s := o.m.sessions[sessionID]
	s.PlantingID = plantingID
	s.MixedPlantingID = mixedPlantingID
	return nil
}

func (o *memTxOps) FindMixBySignature(_ context.Context, sig string) (*lineage.Mix, error) {
	id, ok := o.m.sigIndex[sig]
	if !ok {
		return nil, nil
	}
	return o.m.Mix(context.Background(), id)
}

func (o *memTxOps) CreateMix(_ context.Context, name string, breed *string, comps []lineage.Component) (int64, error) {
	o.m.nextMixID++
	id := o.m.nextMixID
	o.m.mixes[id] = &lineage.Mix{
		ID:         id,
		Name:       name,
		Breed:      breed,
		Components: append([]lineage.Component(nil), comps...),
	}
	o.m.sigIndex[lineage.Signature(comps)] = id
	return id, nil
}

func (o *memTxOps) InsertTransfer(_ context.Context, t *Transfer) (int64, error) {
	o.m.nextTransferID++
	cp := *t
	cp.ID = o.m.nextTransferID
	cp.CreatedAt = time.Now()
	o.m.transfers[cp.ID] = &cp
	return cp.ID, nil
}

func (o *memTxOps) TransferForUpdate(ctx context.Context, id int64) (*Transfer, error) {
	return o.m.GetTransfer(ctx, id)
}

func (o *memTxOps) MarkReverted(_ context.Context, id, actorID int64, at time.Time) error {
	t := o.m.transfers[id]
	t.Reverted = true
	t.RevertedBy = &actorID
	t.RevertedAt = &at
	return nil
}
