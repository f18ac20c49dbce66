package pools

import "time"

type Pool struct {
	ID        int64
	Name      string
	VolumeM3  float64
	Active    bool
	CreatedAt time.Time
}
