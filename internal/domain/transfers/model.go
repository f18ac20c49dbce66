package transfers

import "time"

// Transfer — an immutable movement of mass+count between two sessions.
// PrevPlantingID / PrevMixedPlantingID snapshot the recipient's lineage
// references at commit time so a revert can restore them exactly. The
// Reverted flag flips exactly once.
type Transfer struct {
	ID                  int64      `json:"id"`
	TransplantDate      time.Time  `json:"transplant_date"`
	SourceSessionID     int64      `json:"source_session_id"`
	RecipientSessionID  int64      `json:"recipient_session_id"`
	Weight              float64    `json:"weight"`
	FishCount           int64      `json:"fish_count"`
	PrevPlantingID      *int64     `json:"-"`
	PrevMixedPlantingID *int64     `json:"-"`
	Reverted            bool       `json:"reverted"`
	RevertedBy          *int64     `json:"reverted_by,omitempty"`
	RevertedAt          *time.Time `json:"reverted_at,omitempty"`
	CreatedBy           int64      `json:"created_by"`
	CreatedAt           time.Time  `json:"created_at"`
}

type CreateRequest struct {
	TransplantDate     string  `json:"transplant_date"`
	SourceSessionID    int64   `json:"source_session_id"`
	RecipientSessionID int64   `json:"recipient_session_id"`
	Weight             float64 `json:"weight"`
	FishCount          int64   `json:"fish_count"`
}

type PreviewComponent struct {
	PlantingID int64   `json:"lot_id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type Preview struct {
	WillBlend     bool               `json:"will_blend"`
	ResultingName string             `json:"resulting_name"`
	Components    []PreviewComponent `json:"components"`
}
