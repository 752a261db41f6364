package asset

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopod/engine/internal/errors"
)

type fakeUploader struct {
	calls       int
	gotType     string
	gotBytes    []byte
	returnURL   string
	returnError error
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	f.calls++
	f.gotBytes = data
	f.gotType = contentType
	if f.returnError != nil {
		return "", f.returnError
	}
	return f.returnURL, nil
}

type fakeURLCache struct {
	urls map[string]string
}

func newFakeURLCache() *fakeURLCache {
	return &fakeURLCache{urls: make(map[string]string)}
}

func (f *fakeURLCache) GetAudioURL(episodeID string) (string, bool) {
	u, ok := f.urls[episodeID]
	return u, ok
}

func (f *fakeURLCache) PutAudioURL(episodeID, url string) {
	f.urls[episodeID] = url
}

func TestResolvePassThroughShortURL(t *testing.T) {
	uploader := &fakeUploader{}
	r := NewResolver(uploader, newFakeURLCache(), nil)

	url := "https://feeds.example.com/ep1.mp3"
	got, err := r.Resolve(context.Background(), "ep1", url)
	require.NoError(t, err)
	assert.Equal(t, url, got, "short http URL passes through unchanged")
	assert.Zero(t, uploader.calls, "no upload for a pass-through URL")
}

func TestResolveEmptyReference(t *testing.T) {
	r := NewResolver(&fakeUploader{}, newFakeURLCache(), nil)

	_, err := r.Resolve(context.Background(), "ep1", "  ")
	assert.ErrorIs(t, err, errors.ErrMissingAudio)
}

func TestResolveDataURIUploads(t *testing.T) {
	// MP3 frame sync header so content detection lands on audio/mpeg.
	payload := append([]byte{0xFF, 0xFB, 0x90, 0x64}, []byte(strings.Repeat("x", 64))...)
	ref := "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	uploader := &fakeUploader{returnURL: "https://cdn.example/uploads/ep1.mp3"}
	cache := newFakeURLCache()
	r := NewResolver(uploader, cache, nil)

	got, err := r.Resolve(context.Background(), "ep1", ref)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/uploads/ep1.mp3", got)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, payload, uploader.gotBytes)
	assert.Contains(t, uploader.gotType, "audio/")

	// The resolved URL is cached for the next load.
	cached, ok := cache.GetAudioURL("ep1")
	require.True(t, ok)
	assert.Equal(t, got, cached)
}

func TestResolveUsesCachedURL(t *testing.T) {
	uploader := &fakeUploader{}
	cache := newFakeURLCache()
	cache.PutAudioURL("ep1", "https://cdn.example/uploads/cached.mp3")
	r := NewResolver(uploader, cache, nil)

	got, err := r.Resolve(context.Background(), "ep1", "data:audio/mpeg;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/uploads/cached.mp3", got)
	assert.Zero(t, uploader.calls, "repeated resolution is free")
}

func TestResolveMalformedDataURI(t *testing.T) {
	r := NewResolver(&fakeUploader{}, newFakeURLCache(), nil)

	_, err := r.Resolve(context.Background(), "ep1", "data:audio/mpeg;base64")
	assert.ErrorIs(t, err, errors.ErrAssetDecode)

	_, err = r.Resolve(context.Background(), "ep1", "data:audio/mpeg;base64,!!!not-base64!!!")
	assert.ErrorIs(t, err, errors.ErrAssetDecode)
}

func TestResolveUploadFailurePropagates(t *testing.T) {
	uploader := &fakeUploader{returnError: errors.AssetUpload("bucket unavailable")}
	r := NewResolver(uploader, newFakeURLCache(), nil)

	_, err := r.Resolve(context.Background(), "ep1", "data:audio/mpeg;base64,AAAA")
	assert.ErrorIs(t, err, errors.ErrAssetUpload)
}

func TestResolveOversizedURLFetchesAndUploads(t *testing.T) {
	payload := []byte("audio-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(payload)
	}))
	defer srv.Close()

	// Build a URL longer than the safe bound but still reachable.
	longURL := srv.URL + "/audio.mp3?pad=" + strings.Repeat("a", 100)

	uploader := &fakeUploader{returnURL: "https://cdn.example/uploads/rehosted.mp3"}
	r := NewResolver(uploader, newFakeURLCache(), nil, WithMaxURLLength(80))

	got, err := r.Resolve(context.Background(), "ep1", longURL)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/uploads/rehosted.mp3", got)
	assert.Equal(t, payload, uploader.gotBytes)
}

func TestResolveUnknownHandleWithoutFetcher(t *testing.T) {
	r := NewResolver(&fakeUploader{}, newFakeURLCache(), nil)

	_, err := r.Resolve(context.Background(), "ep1", "blob:device-handle-1234")
	assert.ErrorIs(t, err, errors.ErrAssetDecode)
}

type fakeBlobFetcher struct{}

func (fakeBlobFetcher) Fetch(context.Context, string) ([]byte, string, error) {
	return []byte("blob-bytes"), "audio/mp4", nil
}

func TestResolveBlobHandle(t *testing.T) {
	uploader := &fakeUploader{returnURL: "https://cdn.example/uploads/blob.m4a"}
	r := NewResolver(uploader, newFakeURLCache(), nil, WithBlobFetcher(fakeBlobFetcher{}))

	got, err := r.Resolve(context.Background(), "ep1", "blob:device-handle-1234")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/uploads/blob.m4a", got)
	assert.Equal(t, []byte("blob-bytes"), uploader.gotBytes)
}

func TestDetectContentTypeFallsBackToDeclared(t *testing.T) {
	assert.Equal(t, "audio/ogg", detectContentType([]byte{0x00, 0x01, 0x02}, "audio/ogg"))
	assert.Equal(t, "audio/mpeg", detectContentType([]byte{0x00, 0x01, 0x02}, ""))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".mp3", extensionFor("audio/mpeg"))
	assert.Equal(t, ".bin", extensionFor("application/x-unknown-type"))
}
