package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"mvats-backend/internal/config"
)

// RealtimeClient pushes media lifecycle events to the mobile client.
// Delivery rides on Supabase Realtime row-change subscriptions to the
// media_uploads table; the pipeline's status updates are what subscribers
// actually receive.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(cfg *config.Config) (*RealtimeClient, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &RealtimeClient{client: client}, nil
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; subscribers
	// get row-change events from the media_uploads updates the pipeline
	// persists, so explicit publishing is a no-op placeholder.
	return nil
}

func (r *RealtimeClient) PublishMediaEvent(mediaID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("media:%s", mediaID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUploadReceived(mediaID uuid.UUID, fileName string) error {
	return r.PublishMediaEvent(mediaID, "upload_received", UploadReceivedPayload(mediaID, fileName))
}

func (r *RealtimeClient) PublishProcessingStarted(mediaID uuid.UUID) error {
	return r.PublishMediaEvent(mediaID, "processing_started", ProcessingStartedPayload(mediaID))
}

func (r *RealtimeClient) PublishProcessingCompleted(mediaID uuid.UUID, tagCount int) error {
	return r.PublishMediaEvent(mediaID, "processing_completed", ProcessingCompletedPayload(mediaID, tagCount))
}

func (r *RealtimeClient) PublishProcessingFailed(mediaID uuid.UUID, errorMsg string) error {
	return r.PublishMediaEvent(mediaID, "processing_failed", ProcessingFailedPayload(mediaID, errorMsg))
}

// Event payloads
func UploadReceivedPayload(mediaID uuid.UUID, fileName string) map[string]interface{} {
	return map[string]interface{}{
		"media_id":  mediaID.String(),
		"status":    "uploaded",
		"file_name": fileName,
	}
}

func ProcessingStartedPayload(mediaID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"media_id": mediaID.String(),
		"status":   "processing",
	}
}

func ProcessingCompletedPayload(mediaID uuid.UUID, tagCount int) map[string]interface{} {
	return map[string]interface{}{
		"media_id":  mediaID.String(),
		"status":    "completed",
		"tag_count": tagCount,
	}
}

func ProcessingFailedPayload(mediaID uuid.UUID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"media_id": mediaID.String(),
		"status":   "failed",
		"error":    errorMsg,
	}
}
