// Package client is the typed HTTP client for the analysis API,
// consumed by the TUI session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LuckyMan0277/saju-app/internal/saju"
)

// Request mirrors the POST /api/get-saju body. Pillars carries the
// session's cached pillar codes on requests after the first so the
// server skips stage 1.
type Request struct {
	Name         string            `json:"name"`
	Gender       string            `json:"gender"`
	CalendarType string            `json:"calendarType"`
	Year         int               `json:"year"`
	Month        int               `json:"month"`
	Day          int               `json:"day"`
	Hour         *int              `json:"hour,omitempty"`
	IsLeapMonth  bool              `json:"isLeapMonth"`
	Section      string            `json:"section"`
	Pillars      *saju.FourPillars `json:"pillars,omitempty"`
}

// Response is the success body.
type Response struct {
	SajuResult string           `json:"sajuResult"`
	Pillars    saju.FourPillars `json:"pillars"`
}

// APIError is a non-200 response decoded into its error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

// Client talks to one API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. A zero timeout falls back to two minutes;
// pillar computation plus narrative generation is slow.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetSaju requests one section's narrative.
func (c *Client) GetSaju(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/get-saju", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return nil, &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
