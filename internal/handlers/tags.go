package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mvats-backend/internal/models"
)

// TagsHandler serves the read-only tag records. Tags are created only by
// the ingestion pipeline, so there is no create endpoint.
type TagsHandler struct {
	store RecordStore
}

func NewTagsHandler(store RecordStore) *TagsHandler {
	return &TagsHandler{
		store: store,
	}
}

// ListTags godoc
// @Summary     List tags
// @Description Returns tag records, optionally filtered by media id
// @Tags        tags
// @Produce     json
// @Param       media_id query string false "Filter by media ID (UUID)"
// @Success     200 {object} models.TagListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /tags [get]
func (h *TagsHandler) ListTags(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	var preds []models.Prediction
	var err error

	if mediaIDStr := c.Query("media_id"); mediaIDStr != "" {
		mediaID, parseErr := uuid.Parse(mediaIDStr)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid media id"})
			return
		}
		preds, err = h.store.GetPredictionsByMedia(mediaID)
	} else {
		preds, err = h.store.ListPredictions()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list tags",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.TagListResponse{
		Count: len(preds),
		Tags:  predictionResponses(preds),
	})
}

// GetTag godoc
// @Summary     Get a tag
// @Description Returns one tag record by id
// @Tags        tags
// @Produce     json
// @Param       tag_id path string true "Tag ID (UUID)"
// @Success     200 {object} models.PredictionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /tags/{tag_id} [get]
func (h *TagsHandler) GetTag(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	tagID, err := uuid.Parse(c.Param("tag_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid tag id"})
		return
	}

	pred, err := h.store.GetPrediction(tagID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "tag not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.PredictionResponse{
		ID:         pred.ID.String(),
		MediaID:    pred.MediaID.String(),
		Label:      pred.Label,
		Confidence: pred.Confidence,
		CreatedAt:  pred.CreatedAt,
	})
}
