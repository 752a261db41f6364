// Package backend is the client for the managed backend actions: transcript
// generation, the authoritative transcript store, playback history, and the
// file-upload collaborator.
//
// Unlike the archive tier, this tier is authoritative: transport and server
// errors surface to the caller instead of reading as absent.
package backend

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/errors"
	"github.com/lingopod/engine/internal/id"
)

// Client provides access to the backend action API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	uploadURL   string
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUploadURL overrides the file-upload endpoint.
func WithUploadURL(url string) Option {
	return func(c *Client) { c.uploadURL = url }
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a backend client rooted at baseURL.
// Requests are rate limited to protect the managed backend from tight
// polling loops (10 rps, burst of 20).
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 20),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		uploadURL:   strings.TrimSuffix(baseURL, "/") + "/upload",
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitResult is the backend's answer to a generation request.
type SubmitResult struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RequestTranscript submits a transcription job for the audio at audioURL.
// Failures are classified: an oversized payload is terminal
// (CodePayloadTooLarge), a dropped connection is transient
// (CodeConnectionDropped), anything else is a generic submit error carrying
// the upstream message.
func (c *Client) RequestTranscript(ctx context.Context, audioURL, episodeID, language string) (SubmitResult, error) {
	// A client-side correlation id ties the submission to backend job logs
	// even when the answer never arrives.
	clientID := id.MustGenerate("req")
	payload := map[string]string{
		"audioUrl":        audioURL,
		"episodeId":       episodeID,
		"language":        language,
		"clientRequestId": clientID,
	}

	var result SubmitResult
	if err := c.postJSON(ctx, c.baseURL+"/transcripts/request", payload, &result); err != nil {
		return SubmitResult{}, classifyTransportError(err)
	}

	if !result.Success {
		return result, classifySubmitRejection(result.Error)
	}
	if result.RequestID == "" {
		result.RequestID = clientID
	}
	return result, nil
}

// GetTranscript reads the authoritative transcript record for the episode.
// Absence is (nil, false, nil); real failures surface as errors.
func (c *Client) GetTranscript(ctx context.Context, episodeID, language string) ([]domain.Segment, bool, error) {
	url := fmt.Sprintf("%s/transcripts/%s?language=%s", c.baseURL, episodeID, language)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build transcript request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, false, fmt.Errorf("get transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Internalf("transcript store returned status %d", resp.StatusCode)
	}

	var body struct {
		Segments []domain.Segment `json:"segments"`
	}
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return nil, false, fmt.Errorf("decode transcript: %w", err)
	}
	if len(body.Segments) == 0 {
		return nil, false, nil
	}
	return body.Segments, true, nil
}

// DeleteTranscript removes the authoritative transcript record for the episode.
func (c *Client) DeleteTranscript(ctx context.Context, episodeID string) error {
	url := fmt.Sprintf("%s/transcripts/%s", c.baseURL, episodeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return errors.Internalf("transcript delete returned status %d", resp.StatusCode)
	}
	return nil
}

// RecordHistory upserts the playback history record for an episode.
func (c *Client) RecordHistory(ctx context.Context, rec domain.HistoryRecord) error {
	var ack struct {
		Success bool `json:"success"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/history", rec, &ack); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// GetHistory returns the user's playback history.
func (c *Client) GetHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history", nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Internalf("history returned status %d", resp.StatusCode)
	}

	var records []domain.HistoryRecord
	if err := json.UnmarshalRead(resp.Body, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

// Upload sends raw bytes to the file-upload collaborator and returns the
// resulting stable URL.
func (c *Client) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", errors.ErrAssetUpload.WithCause(err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return "", errors.ErrAssetUpload.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errors.AssetUpload(fmt.Sprintf("upload returned status %d", resp.StatusCode))
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.UnmarshalRead(resp.Body, &body); err != nil {
		return "", errors.ErrAssetUpload.WithCause(err)
	}
	if body.URL == "" {
		return "", errors.AssetUpload("upload response missing url")
	}
	return body.URL, nil
}

// do waits for the rate limiter and executes the request.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// postJSON posts a JSON payload and decodes a JSON answer into out.
func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return errors.PayloadTooLarge("backend rejected request body as too large")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Internalf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.UnmarshalRead(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
