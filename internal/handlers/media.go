package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mvats-backend/internal/models"
)

// RecordStore is the query surface of the record store the read handlers
// need. *database.Client satisfies it.
type RecordStore interface {
	GetMedia(mediaID uuid.UUID) (*models.MediaUpload, error)
	ListMedia() ([]models.MediaUpload, error)
	GetPrediction(predictionID uuid.UUID) (*models.Prediction, error)
	GetPredictionsByMedia(mediaID uuid.UUID) ([]models.Prediction, error)
	ListPredictions() ([]models.Prediction, error)
}

type MediaHandler struct {
	store RecordStore
}

func NewMediaHandler(store RecordStore) *MediaHandler {
	return &MediaHandler{
		store: store,
	}
}

// ListMedia godoc
// @Summary     List media uploads
// @Description Returns all media uploads, newest first, with their tags
// @Tags        video
// @Produce     json
// @Success     200 {object} models.MediaListResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /video [get]
func (h *MediaHandler) ListMedia(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	media, err := h.store.ListMedia()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list media",
			Message: err.Error(),
		})
		return
	}

	responses := make([]models.MediaResponse, 0, len(media))
	for i := range media {
		preds, err := h.store.GetPredictionsByMedia(media[i].ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "failed to get tags",
				Message: err.Error(),
			})
			return
		}
		responses = append(responses, mediaResponse(&media[i], preds))
	}

	c.JSON(http.StatusOK, models.MediaListResponse{Media: responses})
}

// GetMedia godoc
// @Summary     Get a media upload
// @Description Returns one media upload with its tags
// @Tags        video
// @Produce     json
// @Param       media_id path string true "Media ID (UUID)"
// @Success     200 {object} models.MediaResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /video/{media_id} [get]
func (h *MediaHandler) GetMedia(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid media id"})
		return
	}

	media, err := h.store.GetMedia(mediaID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "media not found",
			Message: err.Error(),
		})
		return
	}

	preds, err := h.store.GetPredictionsByMedia(mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get tags",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, mediaResponse(media, preds))
}

// GetMediaTags godoc
// @Summary     Get tags for a media upload
// @Description Returns the tags for one media upload, highest confidence first
// @Tags        video
// @Produce     json
// @Param       media_id path string true "Media ID (UUID)"
// @Success     200 {object} models.PredictionsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /video/{media_id}/tags [get]
func (h *MediaHandler) GetMediaTags(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid media id"})
		return
	}

	// Verify the media exists before listing its tags
	if _, err := h.store.GetMedia(mediaID); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "media not found",
			Message: err.Error(),
		})
		return
	}

	preds, err := h.store.GetPredictionsByMedia(mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to get tags",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.PredictionsResponse{
		MediaID: mediaID.String(),
		Tags:    predictionResponses(preds),
	})
}

func mediaResponse(m *models.MediaUpload, preds []models.Prediction) models.MediaResponse {
	return models.MediaResponse{
		MediaID:    m.ID.String(),
		UserID:     m.UserID,
		FileName:   m.FileName,
		MediaType:  m.MediaType,
		Status:     m.Status,
		UploadTime: m.CreatedAt,
		Tags:       predictionResponses(preds),
	}
}

func predictionResponses(preds []models.Prediction) []models.PredictionResponse {
	responses := make([]models.PredictionResponse, len(preds))
	for i, p := range preds {
		responses[i] = models.PredictionResponse{
			ID:         p.ID.String(),
			MediaID:    p.MediaID.String(),
			Label:      p.Label,
			Confidence: p.Confidence,
			CreatedAt:  p.CreatedAt,
		}
	}
	return responses
}
