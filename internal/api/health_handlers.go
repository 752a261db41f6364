package api

import (
	"net/http"

	"github.com/lingopod/engine/internal/http/response"
)

// HealthResponse contains health check data.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, HealthResponse{Status: "ok"}, s.logger)
}
