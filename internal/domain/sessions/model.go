package sessions

import "time"

// Session — a cohort of stock living in one pool for a bounded period.
// Exactly one of PlantingID / MixedPlantingID is set. BaseMass and BaseCount
// are the running balance, mutated by transfers only; harvest and mortality
// rows are subtracted on demand (see Available).
type Session struct {
	ID              int64
	PoolID          int64
	PlantingID      *int64
	MixedPlantingID *int64
	BaseMass        float64
	BaseCount       int64
	Completed       bool
	StartedAt       time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

type Availability struct {
	Mass  float64
	Count int64
}

// Available — the usable balance after prior removals, never negative.
func Available(s *Session, removedMass float64, removedCount int64) Availability {
	a := Availability{
		Mass:  s.BaseMass - removedMass,
		Count: s.BaseCount - removedCount,
	}
	if a.Mass < 0 {
		a.Mass = 0
	}
	if a.Count < 0 {
		a.Count = 0
	}
	return a
}
