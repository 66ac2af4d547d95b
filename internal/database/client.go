package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mvats-backend/internal/models"
)

// Client is the durable record store for media uploads and predictions.
// It exposes keyed reads and writes only; pipeline orchestration lives in
// the pipeline package.
type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) CreateMedia(m *models.MediaUpload) error {
	if m.StoragePath == "" {
		return fmt.Errorf("media upload requires a storage path")
	}
	if m.UserID == "" {
		m.UserID = models.AnonymousUser
	}

	err := c.db.QueryRow(`
		INSERT INTO media_uploads (id, user_id, file_name, storage_path, media_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, m.ID, m.UserID, m.FileName, m.StoragePath, m.MediaType, m.Status).Scan(
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create media upload: %w", err)
	}

	return nil
}

func (c *Client) GetMedia(mediaID uuid.UUID) (*models.MediaUpload, error) {
	var m models.MediaUpload
	err := c.db.QueryRow(`
		SELECT id, user_id, file_name, storage_path, media_type, status, tag_ids, created_at, updated_at
		FROM media_uploads
		WHERE id = $1
	`, mediaID).Scan(
		&m.ID, &m.UserID, &m.FileName, &m.StoragePath, &m.MediaType,
		&m.Status, pq.Array(&m.TagIDs), &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get media upload: %w", err)
	}

	return &m, nil
}

func (c *Client) ListMedia() ([]models.MediaUpload, error) {
	rows, err := c.db.Query(`
		SELECT id, user_id, file_name, storage_path, media_type, status, tag_ids, created_at, updated_at
		FROM media_uploads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media uploads: %w", err)
	}
	defer rows.Close()

	var media []models.MediaUpload
	for rows.Next() {
		var m models.MediaUpload
		err := rows.Scan(
			&m.ID, &m.UserID, &m.FileName, &m.StoragePath, &m.MediaType,
			&m.Status, pq.Array(&m.TagIDs), &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media upload: %w", err)
		}
		media = append(media, m)
	}

	return media, rows.Err()
}

func (c *Client) UpdateMediaStatus(mediaID uuid.UUID, status string) error {
	_, err := c.db.Exec(`
		UPDATE media_uploads
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, mediaID)
	if err != nil {
		return fmt.Errorf("failed to update media status: %w", err)
	}
	return nil
}

// CompleteMedia links the persisted prediction ids into the media row and
// marks it completed in one statement, so a completed row always carries
// its tag ids.
func (c *Client) CompleteMedia(mediaID uuid.UUID, tagIDs []uuid.UUID) error {
	_, err := c.db.Exec(`
		UPDATE media_uploads
		SET status = $1, tag_ids = $2, updated_at = NOW()
		WHERE id = $3
	`, models.StatusCompleted, pq.Array(tagIDs), mediaID)
	if err != nil {
		return fmt.Errorf("failed to complete media upload: %w", err)
	}
	return nil
}

// CreatePredictions inserts prediction rows one at a time and returns the
// ids written so far. On failure the already-inserted rows are left in
// place; the caller decides what to do with the partial batch.
func (c *Client) CreatePredictions(preds []models.Prediction) ([]uuid.UUID, error) {
	inserted := make([]uuid.UUID, 0, len(preds))
	for i := range preds {
		p := &preds[i]
		if err := p.Validate(); err != nil {
			return inserted, fmt.Errorf("invalid prediction %q: %w", p.Label, err)
		}

		err := c.db.QueryRow(`
			INSERT INTO predictions (id, media_id, label, confidence)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, p.ID, p.MediaID, p.Label, p.Confidence).Scan(&p.CreatedAt)
		if err != nil {
			return inserted, fmt.Errorf("failed to create prediction %q: %w", p.Label, err)
		}

		inserted = append(inserted, p.ID)
	}

	return inserted, nil
}

func (c *Client) GetPrediction(predictionID uuid.UUID) (*models.Prediction, error) {
	var p models.Prediction
	err := c.db.QueryRow(`
		SELECT id, media_id, label, confidence, created_at
		FROM predictions
		WHERE id = $1
	`, predictionID).Scan(&p.ID, &p.MediaID, &p.Label, &p.Confidence, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return &p, nil
}

// GetPredictionsByMedia returns the predictions for one media upload,
// highest confidence first.
func (c *Client) GetPredictionsByMedia(mediaID uuid.UUID) ([]models.Prediction, error) {
	rows, err := c.db.Query(`
		SELECT id, media_id, label, confidence, created_at
		FROM predictions
		WHERE media_id = $1
		ORDER BY confidence DESC
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.MediaID, &p.Label, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, p)
	}

	return preds, rows.Err()
}

func (c *Client) ListPredictions() ([]models.Prediction, error) {
	rows, err := c.db.Query(`
		SELECT id, media_id, label, confidence, created_at
		FROM predictions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.MediaID, &p.Label, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, p)
	}

	return preds, rows.Err()
}

func (c *Client) Close() error {
	return c.db.Close()
}
