package lineage

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Spok95/fishfarm/internal/apperr"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
)

// View — a session's lineage flattened to pure-planting components.
// IdentityKey is "lot:<id>" for a pure planting and "mix:<id>_<id>..." (sorted
// planting ids) for a blend; equal keys mean no blending is needed.
type View struct {
	IdentityKey string
	DisplayName string
	Breed       *string
	Components  []Component
}

// Reader is the lookup surface the resolver needs. Missing rows come back as
// (nil, nil); the resolver turns them into NotFoundError.
type Reader interface {
	Planting(ctx context.Context, id int64) (*plantings.Planting, error)
	Mix(ctx context.Context, id int64) (*Mix, error)
}

// Resolve determines whether the session's stock is a pure planting or a
// blend. A session whose reference resolves to nothing is corrupt and must
// not be silently defaulted.
func Resolve(ctx context.Context, r Reader, s *sessions.Session) (View, error) {
	switch {
	case s.PlantingID != nil:
		p, err := r.Planting(ctx, *s.PlantingID)
		if err != nil {
			return View{}, err
		}
		if p == nil {
			return View{}, apperr.NotFound("planting", *s.PlantingID)
		}
		breed := p.Breed
		return View{
			IdentityKey: "lot:" + strconv.FormatInt(p.ID, 10),
			DisplayName: p.Name,
			Breed:       &breed,
			Components:  []Component{{PlantingID: p.ID, Name: p.Name, Percentage: 100}},
		}, nil

	case s.MixedPlantingID != nil:
		m, err := r.Mix(ctx, *s.MixedPlantingID)
		if err != nil {
			return View{}, err
		}
		if m == nil {
			return View{}, apperr.NotFound("mixed planting", *s.MixedPlantingID)
		}
		ids := make([]int64, 0, len(m.Components))
		for _, c := range m.Components {
			ids = append(ids, c.PlantingID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return View{
			IdentityKey: "mix:" + strings.Join(parts, "_"),
			DisplayName: m.Name,
			Breed:       m.Breed,
			Components:  m.Components,
		}, nil
	}
	return View{}, apperr.NotFound("session lineage", s.ID)
}
