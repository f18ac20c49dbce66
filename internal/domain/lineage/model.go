package lineage

import "time"

// Mix — a blended lineage: a named, weighted set of origin plantings.
// Components are always pure-planting ids, flattened at creation; a blend of a
// blend never nests.
type Mix struct {
	ID         int64
	Name       string
	Breed      *string
	CreatedAt  time.Time
	Components []Component
}

// Component — one (planting, percentage) pair. Per mix the percentages sum to
// 100 within ±0.01 after normalization.
type Component struct {
	PlantingID int64
	Name       string
	Percentage float64
}
