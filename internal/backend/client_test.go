package backend

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/errors"
)

func TestRequestTranscriptSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcripts/request", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]string
		require.NoError(t, json.UnmarshalRead(r.Body, &payload))
		assert.Equal(t, "https://a.example/1.mp3", payload["audioUrl"])
		assert.NotEmpty(t, payload["clientRequestId"])

		w.Write([]byte(`{"success":true,"requestId":"req-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	result, err := c.RequestTranscript(context.Background(), "https://a.example/1.mp3", "ep1", "en")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "req-1", result.RequestID)
}

func TestRequestTranscriptPayloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Maximum content size exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.RequestTranscript(context.Background(), "https://a.example/1.mp3", "ep1", "en")
	assert.ErrorIs(t, err, errors.ErrPayloadTooLarge)
}

func TestRequestTranscriptGenericRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":false,"error":"model overloaded"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.RequestTranscript(context.Background(), "https://a.example/1.mp3", "ep1", "en")
	require.ErrorIs(t, err, errors.ErrGenerationSubmit)
	assert.Contains(t, err.Error(), "model overloaded", "upstream message is carried through")
}

func TestRequestTranscriptConnectionDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.RequestTranscript(context.Background(), "https://a.example/1.mp3", "ep1", "en")
	assert.ErrorIs(t, err, errors.ErrConnectionDropped)
}

func TestGetTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcripts/ep1", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		w.Write([]byte(`{"segments":[{"start":0,"end":1,"text":"a"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	segments, ok, err := c.GetTranscript(context.Background(), "ep1", "en")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, segments, 1)
}

func TestGetTranscriptAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, ok, err := c.GetTranscript(context.Background(), "ep1", "en")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTranscriptEmptyIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"segments":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, ok, err := c.GetTranscript(context.Background(), "ep1", "en")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTranscriptServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, _, err := c.GetTranscript(context.Background(), "ep1", "en")
	assert.Error(t, err, "the store tier is authoritative, failures surface")
}

func TestDeleteTranscript(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	require.NoError(t, c.DeleteTranscript(context.Background(), "ep1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/transcripts/ep1", path)
}

func TestRecordAndGetHistory(t *testing.T) {
	var recorded domain.HistoryRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body := make([]byte, r.ContentLength)
			r.Body.Read(body)
			w.Write([]byte(`{"success":true}`))
			recorded.EpisodeKey = "seen"
		case http.MethodGet:
			w.Write([]byte(`[{"episodeKey":"ep1","title":"T","progressSeconds":42,"durationSeconds":300}]`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.RecordHistory(context.Background(), domain.HistoryRecord{
		EpisodeKey:      "ep1",
		Title:           "T",
		ProgressSeconds: 42,
		DurationSeconds: 300,
		UpdatedAt:       time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "seen", recorded.EpisodeKey)

	records, err := c.GetHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ep1", records[0].EpisodeKey)
	assert.Equal(t, 42.0, records[0].ProgressSeconds)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio/mpeg", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"url":"https://cdn.example/uploads/a.mp3"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	url, err := c.Upload(context.Background(), []byte("bytes"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/uploads/a.mp3", url)
}

func TestUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Upload(context.Background(), []byte("bytes"), "audio/mpeg")
	assert.ErrorIs(t, err, errors.ErrAssetUpload)
}
