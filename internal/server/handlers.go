// Package server exposes the geometry-processing wire protocol over
// HTTP: GET /sfcgal for availability, POST /sfcgal to run an operation.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lbartoletti/jupytergis/internal/geojson"
)

type statusResponse struct {
	Available  bool     `json:"available"`
	Operations []string `json:"operations"`
}

type processRequest struct {
	Operation string                 `json:"operation"`
	GeoJSON   json.RawMessage        `json:"geojson"`
	Params    map[string]interface{} `json:"params"`
}

// HandleSFCGAL dispatches the processing endpoint.
func (s *ServerContext) HandleSFCGAL(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleStatus(w, r)
	case http.MethodPost:
		s.handleProcess(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *ServerContext) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := statusResponse{Operations: []string{}}
	if s.Engine != nil {
		status.Available = true
		status.Operations = s.Engine.Operations()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *ServerContext) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		writeError(w, http.StatusServiceUnavailable, "processing backend is not available")
		return
	}

	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "missing operation")
		return
	}
	if !s.supports(req.Operation) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"unknown operation: %s, available: %s",
			req.Operation, strings.Join(s.Engine.Operations(), ", ")))
		return
	}

	fc, err := geojson.Parse(req.GeoJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid geojson: %v", err))
		return
	}

	result, err := s.Engine.Process(req.Operation, fc, req.Params)
	if err != nil {
		log.Warn().Err(err).Str("operation", req.Operation).
			Msg("Processing operation failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
