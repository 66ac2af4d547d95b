package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"mvats-backend/internal/models"
	"mvats-backend/internal/pipeline"
)

type UploadHandler struct {
	pipeline      *pipeline.Pipeline
	maxUploadSize int64
}

func NewUploadHandler(p *pipeline.Pipeline, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		pipeline:      p,
		maxUploadSize: maxUploadSize,
	}
}

// Upload godoc
// @Summary     Upload a media file and classify it
// @Description Stores the uploaded video or audio file, runs the external
// @Description classification model on it and persists the resulting tags.
// @Description The call is synchronous: the response carries the final
// @Description status of the upload together with the inference result.
// @Tags        video
// @Accept      multipart/form-data
// @Produce     json
// @Param       video formData file true "Video or audio file"
// @Param       user_id formData string false "Caller identifier (defaults to anonymous)"
// @Param       multi_label formData string false "Set to \"true\" to request multiple ranked labels"
// @Success     201 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /video/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.pipeline == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	// Try multiple common field names
	var file *multipart.FileHeader
	fieldNames := []string{"video", "audio", "media", "file"}
	for _, fieldName := range fieldNames {
		if f := form.File[fieldName]; len(f) > 0 {
			file = f[0]
			break
		}
	}

	if file == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no media file uploaded",
			Message: fmt.Sprintf("please provide a file with one of these field names: %v", fieldNames),
		})
		return
	}

	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "file too large",
			Message: fmt.Sprintf("file size %d exceeds the limit of %d bytes", file.Size, h.maxUploadSize),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to open file",
			Message: err.Error(),
		})
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file data",
			Message: err.Error(),
		})
		return
	}

	mediaType, ok := detectMediaType(file.Filename, data)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unsupported file type",
			Message: "only video and audio files are allowed",
		})
		return
	}

	result, err := h.pipeline.Ingest(c.Request.Context(), pipeline.Input{
		Data:       data,
		FileName:   file.Filename,
		UserID:     c.PostForm("user_id"),
		MediaType:  mediaType,
		MultiLabel: c.PostForm("multi_label") == "true",
	})
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	tags := make([]models.TagInfo, len(result.Predictions))
	for i, p := range result.Predictions {
		tags[i] = models.TagInfo{Label: p.Label, Confidence: p.Confidence}
	}

	c.JSON(http.StatusCreated, models.UploadResponse{
		MediaID:    result.Media.ID.String(),
		FileName:   result.Media.FileName,
		MediaType:  result.Media.MediaType,
		Status:     result.Media.Status,
		UploadTime: result.Media.CreatedAt,
		Inference:  result.Inference,
		Tags:       tags,
	})
}

func (h *UploadHandler) writeIngestError(c *gin.Context, err error) {
	var pErr *pipeline.Error
	if !errors.As(err, &pErr) {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "ingestion failed",
			Message: err.Error(),
		})
		return
	}

	resp := models.ErrorResponse{
		Message: pErr.Err.Error(),
		MediaID: pErr.MediaID,
		Status:  pErr.MediaStatus,
	}

	switch pErr.Stage {
	case pipeline.StageBlobWrite:
		resp.Error = "failed to store media file"
		c.JSON(http.StatusInternalServerError, resp)
	case pipeline.StageMetadata:
		resp.Error = "failed to save media metadata"
		c.JSON(http.StatusInternalServerError, resp)
	case pipeline.StageStatus:
		resp.Error = "failed to update media status"
		c.JSON(http.StatusInternalServerError, resp)
	case pipeline.StageInference:
		resp.Error = "inference service error"
		c.JSON(http.StatusBadGateway, resp)
	default:
		resp.Error = "failed to save tags"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// detectMediaType sniffs the magic bytes first and falls back to the file
// extension, defaulting to video for known containers.
func detectMediaType(fileName string, data []byte) (string, bool) {
	if filetype.IsVideo(data) {
		return models.MediaTypeVideo, true
	}
	if filetype.IsAudio(data) {
		return models.MediaTypeAudio, true
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv", ".m4v":
		return models.MediaTypeVideo, true
	case ".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a":
		return models.MediaTypeAudio, true
	}

	return "", false
}
