package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/http/response"
)

// EpisodeRequest identifies the episode a transcript is wanted for.
type EpisodeRequest struct {
	GUID         string  `json:"guid,omitempty"`
	Title        string  `json:"title" validate:"required"`
	AudioURL     string  `json:"audioUrl" validate:"required"`
	ChannelName  string  `json:"channelName,omitempty"`
	ChannelImage string  `json:"channelImage,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

func (e EpisodeRequest) toDomain() domain.Episode {
	return domain.Episode{
		GUID:         e.GUID,
		Title:        e.Title,
		AudioURL:     e.AudioURL,
		ChannelName:  e.ChannelName,
		ChannelImage: e.ChannelImage,
		Duration:     e.Duration,
	}
}

// LoadTranscriptRequest asks the engine to resolve a transcript.
type LoadTranscriptRequest struct {
	Episode  EpisodeRequest `json:"episode"`
	Language string         `json:"language,omitempty" validate:"omitempty,max=16"`
	Force    bool           `json:"force,omitempty"`
}

// TranscriptResponse carries a resolved transcript.
type TranscriptResponse struct {
	EpisodeID   string           `json:"episodeId"`
	Segments    []domain.Segment `json:"segments"`
	Source      string           `json:"source"`
	Placeholder bool             `json:"placeholder,omitempty"`
}

// handleLoadTranscript resolves a transcript through the tiered fallback,
// blocking through generation polling when no tier has it yet.
func (s *Server) handleLoadTranscript(w http.ResponseWriter, r *http.Request) {
	var req LoadTranscriptRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	episode := req.Episode.toDomain()
	result, err := s.loader.Load(r.Context(), episode, req.Language, req.Force)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, TranscriptResponse{
		EpisodeID:   episode.Identity(),
		Segments:    result.Segments,
		Source:      result.Source,
		Placeholder: result.Placeholder,
	}, s.logger)
}

// handleRegenerateTranscript discards every stored form of the transcript and
// resolves it again from scratch.
func (s *Server) handleRegenerateTranscript(w http.ResponseWriter, r *http.Request) {
	var req LoadTranscriptRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if err := s.validator.Validate(req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	episode := req.Episode.toDomain()
	result, err := s.loader.Regenerate(r.Context(), episode, req.Language)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, TranscriptResponse{
		EpisodeID:   episode.Identity(),
		Segments:    result.Segments,
		Source:      result.Source,
		Placeholder: result.Placeholder,
	}, s.logger)
}

// handlePeekTranscript answers from the device cache only. It never triggers
// resolution; clients use it to decide whether a transcript view can open
// instantly.
func (s *Server) handlePeekTranscript(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "episodeID")
	language := r.URL.Query().Get("language")

	entry, ok := s.cache.GetTranscript(episodeID, language)
	if !ok {
		response.NotFound(w, "No cached transcript for this episode", s.logger)
		return
	}

	response.Success(w, TranscriptResponse{
		EpisodeID: episodeID,
		Segments:  entry.Segments,
		Source:    "cache",
	}, s.logger)
}
