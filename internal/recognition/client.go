// Package recognition is the client for the external audio fingerprinting
// service. "No match" is a valid, common response and is reported as a nil
// result, not an error.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Match is a successful recognition result. Score is the provider's
// confidence, 0-100.
type Match struct {
	Title  string
	Artist string
	Album  string
	Score  float64
}

// Client handles communication with the recognition API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// NewClient creates a new recognition API client.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
	}
}

type recognizeResponse struct {
	Status string `json:"status"`
	Error  struct {
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
	Result *struct {
		Artist string  `json:"artist"`
		Title  string  `json:"title"`
		Album  string  `json:"album"`
		Score  float64 `json:"score"`
	} `json:"result"`
}

// Recognize submits the audio clip at clipPath and returns the provider's
// match, or nil when the provider recognized nothing.
func (c *Client) Recognize(ctx context.Context, clipPath string) (*Match, error) {
	body, contentType, err := buildMultipart(clipPath, c.apiToken)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognition API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognition API returned status %d", resp.StatusCode)
	}

	var parsed recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	if parsed.Status == "error" {
		return nil, fmt.Errorf("recognition API error: %s", parsed.Error.ErrorMessage)
	}
	if parsed.Result == nil || parsed.Result.Title == "" {
		return nil, nil // no match
	}

	return &Match{
		Title:  parsed.Result.Title,
		Artist: parsed.Result.Artist,
		Album:  parsed.Result.Album,
		Score:  parsed.Result.Score,
	}, nil
}

func buildMultipart(clipPath, apiToken string) (io.Reader, string, error) {
	f, err := os.Open(clipPath)
	if err != nil {
		return nil, "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if apiToken != "" {
		if err := w.WriteField("api_token", apiToken); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(clipPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy clip into request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
