package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvats-backend/internal/inference"
	"mvats-backend/internal/models"
	"mvats-backend/internal/pipeline"
)

type fakeBlobStore struct {
	putErr  error
	puts    []string
	deleted []string
}

func (f *fakeBlobStore) Put(data []byte, fileName string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	location := "/blobs/" + fileName
	f.puts = append(f.puts, location)
	return location, nil
}

func (f *fakeBlobStore) Delete(location string) error {
	f.deleted = append(f.deleted, location)
	return nil
}

type fakeStore struct {
	media          map[uuid.UUID]*models.MediaUpload
	preds          []models.Prediction
	createMediaErr error
	statusErrOn    string // fail UpdateMediaStatus for this status
	predsFailAfter int    // fail the insert after this many rows; -1 disables
	completeErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		media:          make(map[uuid.UUID]*models.MediaUpload),
		predsFailAfter: -1,
	}
}

func (f *fakeStore) CreateMedia(m *models.MediaUpload) error {
	if f.createMediaErr != nil {
		return f.createMediaErr
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	f.media[m.ID] = &stored
	return nil
}

func (f *fakeStore) UpdateMediaStatus(mediaID uuid.UUID, status string) error {
	if f.statusErrOn != "" && status == f.statusErrOn {
		return errors.New("status write failed")
	}
	m, ok := f.media[mediaID]
	if !ok {
		return errors.New("media not found")
	}
	m.Status = status
	return nil
}

func (f *fakeStore) CompleteMedia(mediaID uuid.UUID, tagIDs []uuid.UUID) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	m, ok := f.media[mediaID]
	if !ok {
		return errors.New("media not found")
	}
	m.Status = models.StatusCompleted
	m.TagIDs = tagIDs
	return nil
}

func (f *fakeStore) CreatePredictions(preds []models.Prediction) ([]uuid.UUID, error) {
	inserted := make([]uuid.UUID, 0, len(preds))
	for i := range preds {
		if f.predsFailAfter >= 0 && i >= f.predsFailAfter {
			return inserted, errors.New("insert failed")
		}
		if err := preds[i].Validate(); err != nil {
			return inserted, err
		}
		preds[i].CreatedAt = time.Now()
		f.preds = append(f.preds, preds[i])
		inserted = append(inserted, preds[i].ID)
	}
	return inserted, nil
}

type fakeClassifier struct {
	result     *inference.Result
	err        error
	multiLabel bool
}

func (f *fakeClassifier) Classify(ctx context.Context, data []byte, fileName string, multiLabel bool) (*inference.Result, error) {
	f.multiLabel = multiLabel
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func classifierResult(preds ...inference.Prediction) *inference.Result {
	raw, _ := json.Marshal(map[string]interface{}{"topPredictions": preds})
	return &inference.Result{TopPredictions: preds, Raw: raw}
}

type fakePublisher struct {
	events     []string
	failedMsg  string
	publishErr error
}

func (f *fakePublisher) PublishUploadReceived(mediaID uuid.UUID, fileName string) error {
	f.events = append(f.events, "upload_received")
	return f.publishErr
}

func (f *fakePublisher) PublishProcessingStarted(mediaID uuid.UUID) error {
	f.events = append(f.events, "processing_started")
	return f.publishErr
}

func (f *fakePublisher) PublishProcessingCompleted(mediaID uuid.UUID, tagCount int) error {
	f.events = append(f.events, "processing_completed")
	return f.publishErr
}

func (f *fakePublisher) PublishProcessingFailed(mediaID uuid.UUID, errorMsg string) error {
	f.events = append(f.events, "processing_failed")
	f.failedMsg = errorMsg
	return f.publishErr
}

func TestPipeline_Ingest(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 0.92}),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	result, err := p.Ingest(context.Background(), pipeline.Input{
		Data:      []byte("video bytes"),
		FileName:  "clip.mp4",
		MediaType: models.MediaTypeVideo,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Media.Status)
	assert.Len(t, result.Media.TagIDs, 1)
	assert.Len(t, result.Predictions, 1)
	assert.Equal(t, "cat", result.Predictions[0].Label)
	assert.Equal(t, 0.92, result.Predictions[0].Confidence)
	assert.Equal(t, models.AnonymousUser, result.Media.UserID)
	assert.NotEmpty(t, result.Media.StoragePath)
	assert.False(t, classifier.multiLabel)

	stored := store.media[result.Media.ID]
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, result.Media.TagIDs, stored.TagIDs)
	assert.Empty(t, blobs.deleted)
}

func TestPipeline_Ingest_TagCountMatchesPredictions(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{
		result: classifierResult(
			inference.Prediction{Class: "park", Confidence: 0.61},
			inference.Prediction{Class: "street_pedestrian", Confidence: 0.22},
			inference.Prediction{Class: "bus", Confidence: 0.09},
		),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	result, err := p.Ingest(context.Background(), pipeline.Input{
		Data:       []byte("video bytes"),
		FileName:   "clip.mp4",
		MediaType:  models.MediaTypeVideo,
		MultiLabel: true,
	})
	require.NoError(t, err)

	assert.Len(t, result.Media.TagIDs, len(result.Predictions))
	assert.True(t, classifier.multiLabel)
}

func TestPipeline_Ingest_BlobWriteFails(t *testing.T) {
	blobs := &fakeBlobStore{putErr: errors.New("disk full")}
	store := newFakeStore()
	p := pipeline.New(blobs, store, &fakeClassifier{}, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StageBlobWrite, pErr.Stage)
	assert.Empty(t, pErr.MediaID, "no record was created")
	assert.Empty(t, store.media)
}

func TestPipeline_Ingest_MetadataFails_BlobDeleted(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	store.createMediaErr = errors.New("connection refused")
	p := pipeline.New(blobs, store, &fakeClassifier{}, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StageMetadata, pErr.Stage)
	assert.Empty(t, pErr.MediaID)
	assert.Equal(t, blobs.puts, blobs.deleted, "the written blob must be compensated")
	assert.Empty(t, store.media)
}

func TestPipeline_Ingest_InferenceFails_MediaRetainedAsFailed(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{err: errors.New("inference service responded with 500")}
	p := pipeline.New(blobs, store, classifier, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StageInference, pErr.Stage)
	assert.NotEmpty(t, pErr.MediaID)
	assert.Equal(t, models.StatusFailed, pErr.MediaStatus)

	require.Len(t, store.media, 1)
	for _, m := range store.media {
		assert.Equal(t, models.StatusFailed, m.Status)
	}
	assert.Empty(t, store.preds, "no predictions for a failed inference")
	assert.Empty(t, blobs.deleted, "the record is retained, so the blob stays")
}

func TestPipeline_Ingest_PredictionWriteFailsPartway(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	store.predsFailAfter = 1
	classifier := &fakeClassifier{
		result: classifierResult(
			inference.Prediction{Class: "park", Confidence: 0.61},
			inference.Prediction{Class: "bus", Confidence: 0.22},
		),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StagePersistence, pErr.Stage)
	assert.Equal(t, models.StatusFailed, pErr.MediaStatus)

	// Rows written before the failure are retained, the media row is failed.
	assert.Len(t, store.preds, 1)
	for _, m := range store.media {
		assert.Equal(t, models.StatusFailed, m.Status)
		assert.Empty(t, m.TagIDs)
	}
}

func TestPipeline_Ingest_OutOfRangeConfidenceRejected(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 1.5}),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StagePersistence, pErr.Stage)
	assert.Contains(t, pErr.Err.Error(), "out of range")
	assert.Empty(t, store.preds)
}

func TestPipeline_Ingest_StatusUpdateFails(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	store.statusErrOn = models.StatusProcessing
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 0.92}),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StageStatus, pErr.Stage, "a status-write failure is not a tag-write failure")
	assert.NotEmpty(t, pErr.MediaID)
	assert.Equal(t, models.StatusFailed, pErr.MediaStatus)
	assert.Empty(t, store.preds, "inference must not run after a failed transition")
}

func TestPipeline_Ingest_PublishesLifecycleEvents(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 0.92}),
	}
	events := &fakePublisher{}
	p := pipeline.New(blobs, store, classifier, events)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"upload_received", "processing_started", "processing_completed"}, events.events)
}

func TestPipeline_Ingest_PublishesFailureEvent(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{err: errors.New("inference service responded with 500")}
	events := &fakePublisher{}
	p := pipeline.New(blobs, store, classifier, events)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	assert.Equal(t, []string{"upload_received", "processing_started", "processing_failed"}, events.events)
	assert.Contains(t, events.failedMsg, "responded with 500")
}

func TestPipeline_Ingest_PublishFailureDoesNotAbort(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 0.92}),
	}
	events := &fakePublisher{publishErr: errors.New("channel unavailable")}
	p := pipeline.New(blobs, store, classifier, events)

	result, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.NoError(t, err, "event publishing is best-effort")
	assert.Equal(t, models.StatusCompleted, result.Media.Status)
}

func TestPipeline_Ingest_CompleteFails(t *testing.T) {
	blobs := &fakeBlobStore{}
	store := newFakeStore()
	store.completeErr = errors.New("connection reset")
	classifier := &fakeClassifier{
		result: classifierResult(inference.Prediction{Class: "cat", Confidence: 0.92}),
	}
	p := pipeline.New(blobs, store, classifier, nil)

	_, err := p.Ingest(context.Background(), pipeline.Input{
		Data: []byte("video bytes"), FileName: "clip.mp4", MediaType: models.MediaTypeVideo,
	})
	require.Error(t, err)

	var pErr *pipeline.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, pipeline.StagePersistence, pErr.Stage)
	for _, m := range store.media {
		assert.Equal(t, models.StatusFailed, m.Status)
	}
}
