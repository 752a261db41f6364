package api

import (
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/http/response"
)

// ProgressRequest records a playback position for an episode.
type ProgressRequest struct {
	EpisodeKey      string  `json:"episodeKey" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	URL             string  `json:"url,omitempty"`
	ChannelName     string  `json:"channelName,omitempty"`
	ChannelImage    string  `json:"channelImage,omitempty"`
	ProgressSeconds float64 `json:"progressSeconds" validate:"gte=0"`
	DurationSeconds float64 `json:"durationSeconds,omitempty" validate:"gte=0"`
}

// handleRecordProgress proxies a history write to the authoritative store.
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	rec := domain.HistoryRecord{
		EpisodeKey:      req.EpisodeKey,
		Title:           req.Title,
		URL:             req.URL,
		ChannelName:     req.ChannelName,
		ChannelImage:    req.ChannelImage,
		ProgressSeconds: req.ProgressSeconds,
		DurationSeconds: req.DurationSeconds,
		UpdatedAt:       time.Now(),
	}
	if err := s.history.RecordHistory(r.Context(), rec); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleGetHistory returns the user's playback history.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.GetHistory(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	response.Success(w, records, s.logger)
}
