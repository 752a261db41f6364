// Package archive reads precomputed transcripts from the content-delivery tier.
//
// The archive is best-effort: a missing object, a bad response, or a parse
// failure all read as "absent" and never as an error. The one exception is an
// optional outage escalation, configured by a threshold of consecutive
// network-level failures, for deployments that want a persistent CDN outage
// to look different from a job that is genuinely not ready yet.
package archive

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/errors"
)

// Fetcher reads transcripts from the CDN archive tier.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	// outageThreshold is the number of consecutive transport failures after
	// which Read reports ErrArchiveOutage. 0 disables escalation.
	outageThreshold int
	failureStreak   atomic.Int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-read timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.httpClient.Timeout = d }
}

// WithOutageThreshold enables outage escalation after n consecutive
// network-level failures.
func WithOutageThreshold(n int) Option {
	return func(f *Fetcher) { f.outageThreshold = n }
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// NewFetcher creates a fetcher rooted at the CDN base URL.
func NewFetcher(baseURL string, logger *slog.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the deterministic archive path for an episode.
func (f *Fetcher) URL(episodeID string) string {
	return fmt.Sprintf("%s/transcripts/%s.json", f.baseURL, episodeID)
}

// Read fetches the archived transcript for episodeID. The boolean reports
// whether segments were found; err is non-nil only when outage escalation is
// enabled and the failure streak has crossed the threshold.
func (f *Fetcher) Read(ctx context.Context, episodeID string) ([]domain.Segment, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(episodeID), nil)
	if err != nil {
		return nil, false, nil
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		streak := f.failureStreak.Add(1)
		f.logger.Debug("archive read failed", "episode", episodeID, "streak", streak, "error", err)
		if f.outageThreshold > 0 && streak >= int64(f.outageThreshold) {
			return nil, false, errors.ArchiveOutage(fmt.Sprintf("archive unreachable for %d consecutive reads", streak)).WithCause(err)
		}
		return nil, false, nil
	}
	defer resp.Body.Close()

	// The CDN answered, so the transport is healthy regardless of status.
	f.failureStreak.Store(0)

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, nil
	}

	segments, ok := parseBody(body)
	if !ok || len(segments) == 0 {
		return nil, false, nil
	}
	return segments, true, nil
}

// parseBody accepts either a bare segment array or an object with a
// "segments" field.
func parseBody(body []byte) ([]domain.Segment, bool) {
	var segments []domain.Segment
	if err := json.Unmarshal(body, &segments); err == nil {
		return segments, true
	}

	var wrapped struct {
		Segments []domain.Segment `json:"segments"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		return wrapped.Segments, true
	}
	return nil, false
}
