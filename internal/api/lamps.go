package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luxgrid/luxgrid-core/internal/lamp"
)

// handleLampState returns every known lamp.
//
// GET /lamp/state
func (s *Server) handleLampState(w http.ResponseWriter, r *http.Request) {
	lamps, err := s.lamps.List(r.Context())
	if err != nil {
		s.logger.Error("listing lamps failed", "error", err)
		writeInternalError(w, "failed to list lamps")
		return
	}

	writeJSON(w, http.StatusOK, lamps)
}

// handleLampControl applies a state-change request to one lamp,
// creating it on first contact.
//
// POST /lamp/control
func (s *Server) handleLampControl(w http.ResponseWriter, r *http.Request) {
	var req lamp.ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.lamps.Control(r.Context(), req, callerFrom(r))
	switch {
	case errors.Is(err, lamp.ErrInvalidRequest):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, lamp.ErrNodeIDConflict):
		writeConflict(w, err.Error())
		return
	case err != nil:
		// The lamp may still have been persisted (publish or log
		// failure happens after the store write); report the failure.
		s.logger.Error("lamp control failed", "error", err)
		writeInternalError(w, "failed to deliver lamp command")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"lamp": result})
}

// handleLampDelete removes a lamp record.
//
// DELETE /lamp/delete
func (s *Server) handleLampDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayID string `json:"gw_id"`
		NodeID    string `json:"node_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	deleted, err := s.lamps.Delete(r.Context(), req.GatewayID, req.NodeID, callerFrom(r))
	switch {
	case errors.Is(err, lamp.ErrInvalidRequest):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, lamp.ErrLampNotFound):
		writeNotFound(w, "lamp not found")
		return
	case err != nil:
		s.logger.Error("lamp delete failed", "error", err)
		writeInternalError(w, "failed to delete lamp")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "lamp deleted",
		"lamp":    deleted,
	})
}
