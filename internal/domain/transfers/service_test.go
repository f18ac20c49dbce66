package transfers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
	"github.com/Spok95/fishfarm/internal/infra/audit"
)

func ptr(v int64) *int64 { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// twoLots: session 1 holds 100kg/1000 of "Trout-1", session 2 holds 50kg/500
// of "Trout-2".
func twoLots() *memLedger {
	m := newMemLedger()
	m.plantings[1] = &plantings.Planting{ID: 1, Name: "Trout-1", Breed: "trout"}
	m.plantings[2] = &plantings.Planting{ID: 2, Name: "Trout-2", Breed: "trout"}
	m.sessions[1] = &sessions.Session{ID: 1, PoolID: 1, PlantingID: ptr(1), BaseMass: 100, BaseCount: 1000}
	m.sessions[2] = &sessions.Session{ID: 2, PoolID: 2, PlantingID: ptr(2), BaseMass: 50, BaseCount: 500}
	return m
}

func newTestService(m *memLedger) *Service {
	return NewService(m, audit.Noop{}, testLogger())
}

func req(src, rcpt int64, weight float64, count int64) CreateRequest {
	return CreateRequest{
		TransplantDate:     "2026-08-15",
		SourceSessionID:    src,
		RecipientSessionID: rcpt,
		Weight:             weight,
		FishCount:          count,
	}
}

func TestCreateBlendsAndConserves(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)

	id, err := svc.Create(context.Background(), req(1, 2, 20, 200), 7)
	require.NoError(t, err)
	require.NotZero(t, id)

	src, rcpt := m.sessions[1], m.sessions[2]
	assert.InDelta(t, 80, src.BaseMass, 1e-9)
	assert.EqualValues(t, 800, src.BaseCount)
	assert.InDelta(t, 70, rcpt.BaseMass, 1e-9)
	assert.EqualValues(t, 700, rcpt.BaseCount)

	// Conservation.
	assert.InDelta(t, 150, src.BaseMass+rcpt.BaseMass, 1e-9)
	assert.EqualValues(t, 1500, src.BaseCount+rcpt.BaseCount)

	// Recipient now points at a blend of both lots.
	require.Nil(t, rcpt.PlantingID)
	require.NotNil(t, rcpt.MixedPlantingID)
	mix := m.mixes[*rcpt.MixedPlantingID]
	assert.Equal(t, "Trout-2 / Trout-1 (71.43% / 28.57%)", mix.Name)
	require.Len(t, mix.Components, 2)
	assert.EqualValues(t, 2, mix.Components[0].PlantingID)
	assert.InDelta(t, 71.43, mix.Components[0].Percentage, 0.01)
	assert.EqualValues(t, 1, mix.Components[1].PlantingID)
	assert.InDelta(t, 28.57, mix.Components[1].Percentage, 0.01)
	require.NotNil(t, mix.Breed)
	assert.Equal(t, "trout", *mix.Breed)

	tr := m.transfers[id]
	require.NotNil(t, tr.PrevPlantingID)
	assert.EqualValues(t, 2, *tr.PrevPlantingID)
	assert.Nil(t, tr.PrevMixedPlantingID)
	assert.EqualValues(t, 7, tr.CreatedBy)
}

func TestCreateSameLineageJustGrows(t *testing.T) {
	m := twoLots()
	m.sessions[2].PlantingID = ptr(1) // both sides the same lot

	svc := newTestService(m)
	_, err := svc.Create(context.Background(), req(1, 2, 20, 200), 1)
	require.NoError(t, err)

	assert.Empty(t, m.mixes)
	require.NotNil(t, m.sessions[2].PlantingID)
	assert.EqualValues(t, 1, *m.sessions[2].PlantingID)
	assert.InDelta(t, 70, m.sessions[2].BaseMass, 1e-9)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(twoLots())
	ctx := context.Background()

	cases := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"bad date", CreateRequest{TransplantDate: "15.08.2026", SourceSessionID: 1, RecipientSessionID: 2, Weight: 1, FishCount: 1}, "transplant_date"},
		{"zero weight", CreateRequest{TransplantDate: "2026-08-15", SourceSessionID: 1, RecipientSessionID: 2, Weight: 0, FishCount: 1}, "weight"},
		{"zero count", CreateRequest{TransplantDate: "2026-08-15", SourceSessionID: 1, RecipientSessionID: 2, Weight: 1, FishCount: 0}, "fish_count"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req, 1)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCreateSameSessionRejected(t *testing.T) {
	svc := newTestService(twoLots())
	_, err := svc.Create(context.Background(), req(1, 1, 10, 100), 1)
	var de *apperr.DomainError
	require.ErrorAs(t, err, &de)
}

func TestCreateCompletedSessionRejected(t *testing.T) {
	m := twoLots()
	m.sessions[2].Completed = true

	svc := newTestService(m)
	_, err := svc.Create(context.Background(), req(1, 2, 10, 100), 1)
	var de *apperr.DomainError
	require.ErrorAs(t, err, &de)
	assert.InDelta(t, 100, m.sessions[1].BaseMass, 1e-9)
}

func TestCreateInsufficientAvailability(t *testing.T) {
	m := twoLots()
	// 30kg/250 fish already harvested out of session 1.
	m.removed[1] = harvests.Removed{Weight: 30, Count: 250}

	svc := newTestService(m)
	ctx := context.Background()

	_, err := svc.Create(ctx, req(1, 2, 75, 100), 1)
	var de *apperr.DomainError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "insufficient biomass")

	_, err = svc.Create(ctx, req(1, 2, 10, 760), 1)
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "insufficient count")

	// Exactly the available amount passes.
	_, err = svc.Create(ctx, req(1, 2, 70, 750), 1)
	require.NoError(t, err)
}

func TestCreateMissingSession(t *testing.T) {
	svc := newTestService(twoLots())
	_, err := svc.Create(context.Background(), req(1, 99, 10, 100), 1)
	var ne *apperr.NotFoundError
	require.ErrorAs(t, err, &ne)
}

func TestMixIdentityIgnoresRatio(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)
	ctx := context.Background()

	_, err := svc.Create(ctx, req(1, 2, 20, 200), 1)
	require.NoError(t, err)
	firstMix := *m.sessions[2].MixedPlantingID

	// A second blend of the same two lots at a different ratio reuses the mix.
	_, err = svc.Create(ctx, req(1, 2, 5, 50), 1)
	require.NoError(t, err)
	assert.Len(t, m.mixes, 1)
	assert.EqualValues(t, firstMix, *m.sessions[2].MixedPlantingID)
}

func TestRevertIsExactInverse(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)
	ctx := context.Background()

	id, err := svc.Create(ctx, req(1, 2, 20, 200), 1)
	require.NoError(t, err)

	require.NoError(t, svc.Revert(ctx, id, 9))

	src, rcpt := m.sessions[1], m.sessions[2]
	assert.InDelta(t, 100, src.BaseMass, 1e-9)
	assert.EqualValues(t, 1000, src.BaseCount)
	assert.InDelta(t, 50, rcpt.BaseMass, 1e-9)
	assert.EqualValues(t, 500, rcpt.BaseCount)

	// Lineage restored from the snapshot.
	require.NotNil(t, rcpt.PlantingID)
	assert.EqualValues(t, 2, *rcpt.PlantingID)
	assert.Nil(t, rcpt.MixedPlantingID)

	tr := m.transfers[id]
	assert.True(t, tr.Reverted)
	require.NotNil(t, tr.RevertedBy)
	assert.EqualValues(t, 9, *tr.RevertedBy)
	require.NotNil(t, tr.RevertedAt)
	assert.WithinDuration(t, time.Now(), *tr.RevertedAt, time.Minute)
}

func TestRevertTwiceRejected(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)
	ctx := context.Background()

	id, err := svc.Create(ctx, req(1, 2, 20, 200), 1)
	require.NoError(t, err)
	require.NoError(t, svc.Revert(ctx, id, 1))

	err = svc.Revert(ctx, id, 1)
	var de *apperr.DomainError
	require.ErrorAs(t, err, &de)

	// Balances untouched by the failed second revert.
	assert.InDelta(t, 100, m.sessions[1].BaseMass, 1e-9)
	assert.InDelta(t, 50, m.sessions[2].BaseMass, 1e-9)
}

func TestRevertRecipientDepleted(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)
	ctx := context.Background()

	id, err := svc.Create(ctx, req(1, 2, 20, 200), 1)
	require.NoError(t, err)

	// Everything harvested out of the recipient since the transfer.
	m.removed[2] = harvests.Removed{Weight: 65, Count: 650}

	err = svc.Revert(ctx, id, 1)
	var de *apperr.DomainError
	require.ErrorAs(t, err, &de)
	assert.InDelta(t, 80, m.sessions[1].BaseMass, 1e-9)
	assert.InDelta(t, 70, m.sessions[2].BaseMass, 1e-9)
}

func TestRevertUnknownTransfer(t *testing.T) {
	svc := newTestService(twoLots())
	err := svc.Revert(context.Background(), 42, 1)
	var ne *apperr.NotFoundError
	require.ErrorAs(t, err, &ne)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)

	p, err := svc.PreviewTransfer(context.Background(), req(1, 2, 20, 200))
	require.NoError(t, err)

	assert.True(t, p.WillBlend)
	assert.Equal(t, "Trout-2 / Trout-1 (71.43% / 28.57%)", p.ResultingName)
	require.Len(t, p.Components, 2)
	assert.EqualValues(t, 2, p.Components[0].PlantingID)
	assert.Equal(t, "Trout-2", p.Components[0].Name)
	assert.InDelta(t, 71.43, p.Components[0].Percentage, 0.01)

	// Nothing changed.
	assert.InDelta(t, 100, m.sessions[1].BaseMass, 1e-9)
	assert.InDelta(t, 50, m.sessions[2].BaseMass, 1e-9)
	assert.Empty(t, m.mixes)
	assert.Empty(t, m.transfers)
}

func TestPreviewSameLineage(t *testing.T) {
	m := twoLots()
	m.sessions[2].PlantingID = ptr(1)

	svc := newTestService(m)
	p, err := svc.PreviewTransfer(context.Background(), req(1, 2, 20, 200))
	require.NoError(t, err)
	assert.False(t, p.WillBlend)
	assert.Equal(t, "Trout-1", p.ResultingName)
}

func TestBlendOfBlendStaysFlat(t *testing.T) {
	m := twoLots()
	svc := newTestService(m)
	ctx := context.Background()

	// First blend: session 2 becomes Trout-2/Trout-1.
	_, err := svc.Create(ctx, req(1, 2, 20, 200), 1)
	require.NoError(t, err)

	// Third lot in a third session, transferred onto the blend.
	m.plantings[3] = &plantings.Planting{ID: 3, Name: "Carp-1", Breed: "carp"}
	m.sessions[3] = &sessions.Session{ID: 3, PoolID: 3, PlantingID: ptr(3), BaseMass: 30, BaseCount: 300}

	_, err = svc.Create(ctx, req(3, 2, 10, 100), 1)
	require.NoError(t, err)

	mix := m.mixes[*m.sessions[2].MixedPlantingID]
	require.Len(t, mix.Components, 3)
	var sum float64
	for _, c := range mix.Components {
		assert.Greater(t, c.Percentage, 0.0)
		sum += c.Percentage
	}
	assert.InDelta(t, 100, sum, 0.01)
	// Mixed breeds: no inherited breed.
	assert.Nil(t, mix.Breed)
}
