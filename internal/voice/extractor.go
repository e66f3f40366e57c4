package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type ExtractorConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPExtractor delegates intent extraction to an external language service
// speaking a small JSON protocol.
type HTTPExtractor struct {
	url    string
	apiKey string
	client *http.Client
}

type extractRequest struct {
	Utterance     string `json:"utterance"`
	ReferenceTime string `json:"referenceTime"`
	CurrentYear   int    `json:"currentYear"`
}

func NewHTTPExtractor(config ExtractorConfig) *HTTPExtractor {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPExtractor{
		url:    config.URL,
		apiKey: config.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, utterance string, now time.Time) (Extraction, error) {
	body, err := json.Marshal(extractRequest{
		Utterance:     utterance,
		ReferenceTime: now.Format(time.RFC3339),
		CurrentYear:   now.Year(),
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to prepare extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Extraction{}, fmt.Errorf("extraction request failed with status %d", resp.StatusCode)
	}

	var ext Extraction
	if err := json.NewDecoder(resp.Body).Decode(&ext); err != nil {
		return Extraction{}, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return ext, nil
}
