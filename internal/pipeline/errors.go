package pipeline

import "fmt"

// Stage identifies the pipeline step a failure belongs to. Handlers map
// stages to HTTP status codes: inference failures are gateway errors,
// everything else is an internal error.
type Stage string

const (
	StageBlobWrite   Stage = "blob_write"
	StageMetadata    Stage = "metadata"
	StageStatus      Stage = "status_update"
	StageInference   Stage = "inference"
	StagePersistence Stage = "persistence"
)

// Error is the single error type returned by Ingest. MediaID and
// MediaStatus are set whenever a media record was retained, so callers can
// tell "never started" apart from "started and failed".
type Error struct {
	Stage       Stage
	MediaID     string
	MediaStatus string
	Err         error
}

func (e *Error) Error() string {
	if e.MediaID != "" {
		return fmt.Sprintf("%s failed for media %s: %v", e.Stage, e.MediaID, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
