package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"mvats-backend/internal/models"
)

func TestPrediction_Validate(t *testing.T) {
	base := models.Prediction{
		ID:         uuid.New(),
		MediaID:    uuid.New(),
		Label:      "street_traffic",
		Confidence: 0.87,
	}

	assert.NoError(t, base.Validate())
}

func TestPrediction_Validate_ConfidenceBounds(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{"zero is valid", 0, false},
		{"one is valid", 1, false},
		{"below range", -0.1, true},
		{"above range", 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Prediction{
				ID:         uuid.New(),
				MediaID:    uuid.New(),
				Label:      "park",
				Confidence: tt.confidence,
			}
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "out of range")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrediction_Validate_RequiredFields(t *testing.T) {
	p := models.Prediction{ID: uuid.New(), MediaID: uuid.New(), Confidence: 0.5}
	assert.Error(t, p.Validate(), "missing label must be rejected")

	p = models.Prediction{ID: uuid.New(), Label: "bus", Confidence: 0.5}
	assert.Error(t, p.Validate(), "missing media id must be rejected")
}
