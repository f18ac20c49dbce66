package harvests

import "time"

type Harvest struct {
	ID          int64
	SessionID   int64
	Weight      float64
	FishCount   int64
	HarvestedAt time.Time
	CreatedBy   int64
	CreatedAt   time.Time
}

type Mortality struct {
	ID         int64
	SessionID  int64
	Weight     float64
	FishCount  int64
	Cause      string
	RecordedAt time.Time
	CreatedBy  int64
	CreatedAt  time.Time
}

// Removed — total mass/count taken out of a session by harvests and
// mortalities together.
type Removed struct {
	Weight float64
	Count  int64
}
