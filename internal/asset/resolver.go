// Package asset normalizes arbitrary audio references into stable remote URLs
// a transcription job can consume.
//
// Plain http(s) URLs of sane length pass through untouched. Everything else
// (inline-encoded payloads, ephemeral local handles, oversized URLs) is
// materialized into bytes and pushed through the file-upload collaborator;
// the resulting URL is cached per episode so repeated resolutions are free.
package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lingopod/engine/internal/errors"
)

// Uploader pushes raw bytes to remote storage and returns a stable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// URLCache remembers resolved audio URLs per episode.
type URLCache interface {
	GetAudioURL(episodeID string) (string, bool)
	PutAudioURL(episodeID, url string)
}

// BlobFetcher materializes a device-local audio handle into bytes.
// The player injects one; a nil fetcher makes such handles unresolvable.
type BlobFetcher interface {
	Fetch(ctx context.Context, ref string) (data []byte, contentType string, err error)
}

// Resolver normalizes audio references.
type Resolver struct {
	uploader   Uploader
	cache      URLCache
	blobs      BlobFetcher
	httpClient *http.Client
	maxURLLen  int
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBlobFetcher installs the device-local handle fetcher.
func WithBlobFetcher(b BlobFetcher) Option {
	return func(r *Resolver) { r.blobs = b }
}

// WithMaxURLLength overrides the maximum safe URL length.
func WithMaxURLLength(n int) Option {
	return func(r *Resolver) { r.maxURLLen = n }
}

// WithHTTPClient overrides the HTTP client used to fetch oversized URLs.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// MaxSafeURLLength is the longest URL that may be handed to a transcription job.
const MaxSafeURLLength = 8000

// NewResolver creates a resolver.
func NewResolver(uploader Uploader, cache URLCache, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Resolver{
		uploader:   uploader,
		cache:      cache,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxURLLen:  MaxSafeURLLength,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns ref into a URL safe to hand to the transcription job.
func (r *Resolver) Resolve(ctx context.Context, episodeID, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.MissingAudio("episode has no audio reference")
	}

	if cached, ok := r.cache.GetAudioURL(episodeID); ok {
		return cached, nil
	}

	if isHTTP(ref) && len(ref) <= r.maxURLLen {
		return ref, nil
	}

	data, declaredType, err := r.materialize(ctx, ref)
	if err != nil {
		return "", err
	}

	contentType := detectContentType(data, declaredType)

	url, err := r.uploader.Upload(ctx, data, contentType)
	if err != nil {
		return "", err
	}

	r.cache.PutAudioURL(episodeID, url)
	r.logger.Debug("audio asset uploaded",
		"episode", episodeID,
		"content_type", contentType,
		"extension", extensionFor(contentType),
		"bytes", len(data),
	)
	return url, nil
}

// materialize turns a non-passthrough reference into bytes plus the content
// type the reference declared, if any.
func (r *Resolver) materialize(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case isHTTP(ref):
		// Oversized URL; fetch the bytes and re-host them.
		return r.fetchHTTP(ctx, ref)
	default:
		if r.blobs == nil {
			return nil, "", errors.AssetDecode(fmt.Sprintf("unsupported audio reference %q", truncate(ref, 64)))
		}
		data, contentType, err := r.blobs.Fetch(ctx, ref)
		if err != nil {
			return nil, "", errors.ErrAssetDecode.WithCause(err)
		}
		return data, contentType, nil
	}
}

func (r *Resolver) fetchHTTP(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.ErrAssetDecode.WithCause(err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", errors.ErrAssetDecode.WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.AssetDecode(fmt.Sprintf("audio fetch returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.ErrAssetDecode.WithCause(err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<payload>.
func decodeDataURI(ref string) ([]byte, string, error) {
	rest := strings.TrimPrefix(ref, "data:")
	head, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", errors.AssetDecode("malformed data URI: no payload separator")
	}

	declaredType := head
	base64Encoded := false
	if suffix, ok := strings.CutSuffix(head, ";base64"); ok {
		declaredType = suffix
		base64Encoded = true
	}

	if !base64Encoded {
		return []byte(payload), declaredType, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.ErrAssetDecode.WithCause(err)
	}
	return data, declaredType, nil
}

// detectContentType prefers content sniffing over the declared type, falling
// back to the declaration and finally to a generic audio type.
func detectContentType(data []byte, declared string) string {
	if detected := mimetype.Detect(data); detected.String() != "application/octet-stream" {
		return detected.String()
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return "audio/mpeg"
}

// extensionFor infers a file extension from a content type.
func extensionFor(contentType string) string {
	if ext := mimetype.Lookup(contentType); ext != nil && ext.Extension() != "" {
		return ext.Extension()
	}
	return ".bin"
}

func isHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
