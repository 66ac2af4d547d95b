package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to the external video classification service. The service
// accepts a multipart file on POST /predict/video and answers with a ranked
// prediction list under a "topPredictions" key; any other shape is an
// error. One synchronous call per upload, no internal retries — re-sending
// a large file automatically could duplicate load on the model server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Result carries both the typed predictions and the raw response body, so
// the upload response can echo the full inference payload to the client.
type Result struct {
	TopPredictions []Prediction
	Raw            json.RawMessage
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify sends the file to the classifier and parses the prediction
// list. Transport failures, non-2xx statuses and unparseable bodies all
// come back as a single classification error carrying the cause.
// Confidence values are passed through unmodified; range checks belong to
// the prediction store's write path.
func (c *Client) Classify(ctx context.Context, data []byte, fileName string, multiLabel bool) (*Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("video", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if multiLabel {
		if err := writer.WriteField("multi_label", "true"); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := c.baseURL + "/predict/video"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach inference service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference service responded with %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		TopPredictions []Prediction `json:"topPredictions"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode inference response: %w, body: %s", err, string(body))
	}
	if parsed.TopPredictions == nil {
		return nil, fmt.Errorf("inference response is missing topPredictions, body: %s", string(body))
	}

	return &Result{
		TopPredictions: parsed.TopPredictions,
		Raw:            json.RawMessage(body),
	}, nil
}
