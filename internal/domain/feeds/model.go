package feeds

import "time"

type Feed struct {
	ID         int64
	Name       string
	ProteinPct float64
	Active     bool
	CreatedAt  time.Time
}

type Feeding struct {
	ID        int64
	SessionID int64
	FeedID    int64
	AmountKg  float64
	FedAt     time.Time
	CreatedBy int64
	CreatedAt time.Time
}
