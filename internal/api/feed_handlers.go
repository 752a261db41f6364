package api

import (
	"net/http"

	"github.com/lingopod/engine/internal/http/response"
)

// handleParseFeed fetches a podcast feed and returns its playable episodes.
func (s *Server) handleParseFeed(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		response.BadRequest(w, "Missing url query parameter", s.logger)
		return
	}

	episodes, err := s.feeds.Parse(r.Context(), url)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, episodes, s.logger)
}
