package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	RunID         string  `json:"run_id,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Finished      bool    `json:"finished"`
	Passed        *bool   `json:"passed,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleHealth reports that the process is alive and whether the benchmark
// has finished.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	resp := HealthResponse{
		Status:        "healthy",
		RunID:         s.runID,
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	if rep := s.currentReport(); rep != nil {
		resp.Finished = true
		resp.Passed = &rep.Passed
	}
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// handleReport returns the final report as JSON, or 404 while the benchmark
// is still running.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rep := s.currentReport()
	if rep == nil {
		s.writeErrorResponse(w, http.StatusNotFound, "The benchmark has not produced a report yet")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, rep)
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
