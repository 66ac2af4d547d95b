package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	MediaID string `json:"media_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type UploadResponse struct {
	MediaID    string          `json:"media_id"`
	FileName   string          `json:"file_name"`
	MediaType  string          `json:"media_type"`
	Status     string          `json:"status"`
	UploadTime time.Time       `json:"upload_time"`
	Inference  json.RawMessage `json:"inference"`
	Tags       []TagInfo       `json:"tags"`
}

type TagInfo struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type MediaResponse struct {
	MediaID    string               `json:"media_id"`
	UserID     string               `json:"user_id"`
	FileName   string               `json:"file_name"`
	MediaType  string               `json:"media_type"`
	Status     string               `json:"status"`
	UploadTime time.Time            `json:"upload_time"`
	Tags       []PredictionResponse `json:"tags"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

type PredictionResponse struct {
	ID         string    `json:"id"`
	MediaID    string    `json:"media_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

type PredictionsResponse struct {
	MediaID string               `json:"media_id"`
	Tags    []PredictionResponse `json:"tags"`
}

type TagListResponse struct {
	Count int                  `json:"count"`
	Tags  []PredictionResponse `json:"tags"`
}
