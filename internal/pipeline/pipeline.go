package pipeline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"mvats-backend/internal/inference"
	"mvats-backend/internal/models"
)

// BlobStore persists raw uploaded bytes. Put must be durable before it
// returns; Delete is the compensating action when a later step fails.
type BlobStore interface {
	Put(data []byte, fileName string) (string, error)
	Delete(location string) error
}

// Store is the durable record store for media uploads and predictions.
type Store interface {
	CreateMedia(m *models.MediaUpload) error
	UpdateMediaStatus(mediaID uuid.UUID, status string) error
	CompleteMedia(mediaID uuid.UUID, tagIDs []uuid.UUID) error
	CreatePredictions(preds []models.Prediction) ([]uuid.UUID, error)
}

// Classifier is the external inference service.
type Classifier interface {
	Classify(ctx context.Context, data []byte, fileName string, multiLabel bool) (*inference.Result, error)
}

// Publisher pushes media lifecycle events; publishing is best-effort and
// a publish failure is logged, never escalated.
type Publisher interface {
	PublishUploadReceived(mediaID uuid.UUID, fileName string) error
	PublishProcessingStarted(mediaID uuid.UUID) error
	PublishProcessingCompleted(mediaID uuid.UUID, tagCount int) error
	PublishProcessingFailed(mediaID uuid.UUID, errorMsg string) error
}

// Pipeline drives one upload through blob write → media record →
// inference → prediction persistence, advancing the media record's status
// at each checkpoint. Each ingestion is strictly sequential; a step only
// starts after the previous step's write is acknowledged, and no step is
// retried. The inference endpoint arrives via the injected Classifier, so
// tests can swap in a fake.
type Pipeline struct {
	blobs      BlobStore
	store      Store
	classifier Classifier
	events     Publisher // optional
}

func New(blobs BlobStore, store Store, classifier Classifier, events Publisher) *Pipeline {
	return &Pipeline{
		blobs:      blobs,
		store:      store,
		classifier: classifier,
		events:     events,
	}
}

type Input struct {
	Data       []byte
	FileName   string
	UserID     string
	MediaType  string
	MultiLabel bool
}

type Result struct {
	Media       *models.MediaUpload
	Inference   json.RawMessage
	Predictions []models.Prediction
}

// Ingest runs the full classification sequence for one upload. On success
// the returned media record is completed with its tag ids linked. On
// failure the returned error is always a *Error; if a media record was
// retained its id and last-known status are attached.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (*Result, error) {
	// Step 1: write the raw bytes to the blob store. Nothing to roll back
	// if this fails.
	location, err := p.blobs.Put(in.Data, in.FileName)
	if err != nil {
		return nil, &Error{Stage: StageBlobWrite, Err: err}
	}

	// Step 2: create the media record. The blob already exists, so a
	// failure here deletes it — no orphaned blob for a record that was
	// never created.
	userID := in.UserID
	if userID == "" {
		userID = models.AnonymousUser
	}
	media := &models.MediaUpload{
		ID:          uuid.New(),
		UserID:      userID,
		FileName:    in.FileName,
		StoragePath: location,
		MediaType:   in.MediaType,
		Status:      models.StatusUploaded,
	}
	if err := p.store.CreateMedia(media); err != nil {
		if delErr := p.blobs.Delete(location); delErr != nil {
			log.Printf("Warning: failed to delete blob %s after metadata failure: %v", location, delErr)
		}
		return nil, &Error{Stage: StageMetadata, Err: err}
	}
	p.publish(media.ID, "upload_received", func() error {
		return p.events.PublishUploadReceived(media.ID, media.FileName)
	})

	// Step 3: advance to processing before the inference call. The record
	// is retained from here on; failures mark it, never delete it.
	if err := p.store.UpdateMediaStatus(media.ID, models.StatusProcessing); err != nil {
		return nil, p.fail(media, StageStatus, err)
	}
	media.Status = models.StatusProcessing
	p.publish(media.ID, "processing_started", func() error {
		return p.events.PublishProcessingStarted(media.ID)
	})

	// Step 4: the single blocking network call. Bounded by the classifier
	// client's timeout; once dispatched it runs to completion or failure.
	result, err := p.classifier.Classify(ctx, in.Data, in.FileName, in.MultiLabel)
	if err != nil {
		return nil, p.fail(media, StageInference, err)
	}

	// Step 5: persist one prediction row per returned label. The insert is
	// per-row; rows written before a failure are retained and the media
	// record is marked failed.
	preds := make([]models.Prediction, len(result.TopPredictions))
	for i, tp := range result.TopPredictions {
		preds[i] = models.Prediction{
			ID:         uuid.New(),
			MediaID:    media.ID,
			Label:      tp.Class,
			Confidence: tp.Confidence,
		}
	}
	tagIDs, err := p.store.CreatePredictions(preds)
	if err != nil {
		return nil, p.fail(media, StagePersistence, err)
	}

	// Step 6: link the tag ids and complete.
	if err := p.store.CompleteMedia(media.ID, tagIDs); err != nil {
		return nil, p.fail(media, StagePersistence, err)
	}
	media.Status = models.StatusCompleted
	media.TagIDs = tagIDs
	p.publish(media.ID, "processing_completed", func() error {
		return p.events.PublishProcessingCompleted(media.ID, len(tagIDs))
	})

	return &Result{
		Media:       media,
		Inference:   result.Raw,
		Predictions: preds,
	}, nil
}

// fail marks the retained media record failed and wraps the cause with the
// record's identity. A failure of the status write itself is logged; the
// original cause is what the caller needs to see.
func (p *Pipeline) fail(media *models.MediaUpload, stage Stage, cause error) *Error {
	if err := p.store.UpdateMediaStatus(media.ID, models.StatusFailed); err != nil {
		log.Printf("Warning: failed to mark media %s as failed: %v", media.ID, err)
	} else {
		media.Status = models.StatusFailed
	}
	p.publish(media.ID, "processing_failed", func() error {
		return p.events.PublishProcessingFailed(media.ID, cause.Error())
	})

	return &Error{
		Stage:       stage,
		MediaID:     media.ID.String(),
		MediaStatus: media.Status,
		Err:         cause,
	}
}

func (p *Pipeline) publish(mediaID uuid.UUID, event string, send func() error) {
	if p.events == nil {
		return
	}
	if err := send(); err != nil {
		log.Printf("Warning: failed to publish %s event for media %s: %v", event, mediaID, err)
	}
}
