package plantings

import "time"

// Planting — an origin stocking batch of uniform genetic source.
// Immutable once a session references it.
type Planting struct {
	ID        int64
	Name      string
	Breed     string
	CreatedAt time.Time
}
