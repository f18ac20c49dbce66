package lineage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
)

type mapReader struct {
	plantings map[int64]*plantings.Planting
	mixes     map[int64]*Mix
}

func (r mapReader) Planting(_ context.Context, id int64) (*plantings.Planting, error) {
	return r.plantings[id], nil
}

func (r mapReader) Mix(_ context.Context, id int64) (*Mix, error) {
	return r.mixes[id], nil
}

func ptr(v int64) *int64 { return &v }

func TestResolvePureLot(t *testing.T) {
	r := mapReader{plantings: map[int64]*plantings.Planting{
		5: {ID: 5, Name: "Trout-1", Breed: "trout"},
	}}
	s := &sessions.Session{ID: 1, PlantingID: ptr(5)}

	v, err := Resolve(context.Background(), r, s)
	require.NoError(t, err)
	assert.Equal(t, "lot:5", v.IdentityKey)
	assert.Equal(t, "Trout-1", v.DisplayName)
	require.NotNil(t, v.Breed)
	assert.Equal(t, "trout", *v.Breed)
	require.Len(t, v.Components, 1)
	assert.EqualValues(t, 5, v.Components[0].PlantingID)
	assert.InDelta(t, 100, v.Components[0].Percentage, 1e-9)
}

func TestResolveMixSortsIdentity(t *testing.T) {
	r := mapReader{mixes: map[int64]*Mix{
		3: {
			ID:   3,
			Name: "Trout-2 / Trout-1 (71.43% / 28.57%)",
			Components: []Component{
				{PlantingID: 9, Name: "Trout-2", Percentage: 71.43},
				{PlantingID: 4, Name: "Trout-1", Percentage: 28.57},
			},
		},
	}}
	s := &sessions.Session{ID: 1, MixedPlantingID: ptr(3)}

	v, err := Resolve(context.Background(), r, s)
	require.NoError(t, err)
	assert.Equal(t, "mix:4_9", v.IdentityKey)
	assert.Equal(t, "Trout-2 / Trout-1 (71.43% / 28.57%)", v.DisplayName)
	assert.Len(t, v.Components, 2)
}

func TestResolveMissingRowsFail(t *testing.T) {
	r := mapReader{}
	var ne *apperr.NotFoundError

	_, err := Resolve(context.Background(), r, &sessions.Session{ID: 1, PlantingID: ptr(5)})
	require.ErrorAs(t, err, &ne)

	_, err = Resolve(context.Background(), r, &sessions.Session{ID: 1, MixedPlantingID: ptr(3)})
	require.ErrorAs(t, err, &ne)

	// Neither reference set: corrupt session, never silently defaulted.
	_, err = Resolve(context.Background(), r, &sessions.Session{ID: 1})
	require.ErrorAs(t, err, &ne)
}
