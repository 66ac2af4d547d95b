package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Media upload lifecycle statuses. A row starts as StatusUploaded and is
// advanced only by the ingestion pipeline; StatusCompleted and StatusFailed
// are terminal.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Media types accepted by the upload endpoint.
const (
	MediaTypeVideo = "video"
	MediaTypeAudio = "audio"
)

// AnonymousUser is recorded when the caller does not supply a user_id.
const AnonymousUser = "anonymous"

type MediaUpload struct {
	ID          uuid.UUID
	UserID      string
	FileName    string
	StoragePath string
	MediaType   string
	Status      string
	TagIDs      []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Prediction struct {
	ID         uuid.UUID
	MediaID    uuid.UUID
	Label      string
	Confidence float64
	CreatedAt  time.Time
}

// Validate enforces the write-boundary constraints on a prediction row.
// Confidence comes from the inference service unclamped, so out-of-range
// values must be rejected here before they reach the database.
func (p *Prediction) Validate() error {
	if p.MediaID == uuid.Nil {
		return fmt.Errorf("prediction requires a media id")
	}
	if p.Label == "" {
		return fmt.Errorf("prediction requires a label")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %v is out of range [0, 1]", p.Confidence)
	}
	return nil
}
