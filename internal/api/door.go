package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/oakmoor-systems/doorcore/internal/audit"
	"github.com/oakmoor-systems/doorcore/internal/door"
)

// doorResponse is the response body for GET /door.
type doorResponse struct {
	Status    string `json:"status"`
	Protocol  string `json:"protocol"`
	Faulted   bool   `json:"faulted"`
	Settled   bool   `json:"settled"`
	MoveArmed bool   `json:"move_timer_armed"`
	At        string `json:"at"`
}

// commandRequest is the request body for POST /door/command.
type commandRequest struct {
	Command string `json:"command"`
}

// commandResponse is the response body for POST /door/command.
type commandResponse struct {
	Command string `json:"command"`
	Status  string `json:"status"`
	Pulsed  bool   `json:"pulsed"`
}

// doorStatsResponse is the response body for GET /door/stats.
type doorStatsResponse struct {
	door.Stats
	Cycles int `json:"cycles"`
}

// handleGetDoor returns the current door status snapshot.
func (s *Server) handleGetDoor(w http.ResponseWriter, _ *http.Request) {
	st := s.controller.Status()
	stats := s.controller.SnapshotStats()

	writeJSON(w, http.StatusOK, doorResponse{
		Status:    st.Description(),
		Protocol:  stats.Protocol,
		Faulted:   st.Faulted(),
		Settled:   st.Settled(),
		MoveArmed: stats.MoveArmed,
		At:        time.Now().UTC().Format(time.RFC3339),
	})
}

// handleDoorCommand applies a command to the door controller.
//
// The command token must belong to the active protocol. Unlike the wire
// surfaces, unrecognised tokens are rejected with 400 rather than silently
// ignored. The empty command reports current status without side effects.
func (s *Server) handleDoorCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd := door.ParseCommand(req.Command, s.controller.Protocol())
	if cmd == door.CommandInvalid {
		writeBadRequest(w, "unknown command: "+req.Command)
		return
	}

	status, pulsed := s.controller.Apply(r.Context(), cmd)

	writeJSON(w, http.StatusOK, commandResponse{
		Command: cmd.String(),
		Status:  status.Description(),
		Pulsed:  pulsed,
	})
}

// handleListDoorEvents returns the audit trail of door status events.
//
// Query parameters: status, source, limit, offset.
func (s *Server) handleListDoorEvents(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Status: r.URL.Query().Get("status"),
		Source: r.URL.Query().Get("source"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing door events failed", "error", err)
		writeInternalError(w, "failed to list door events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDoorStats returns controller counters plus the lifetime cycle count.
func (s *Server) handleDoorStats(w http.ResponseWriter, r *http.Request) {
	cycles, err := s.audit.CycleCount(r.Context())
	if err != nil {
		s.logger.Error("counting door cycles failed", "error", err)
		writeInternalError(w, "failed to count door cycles")
		return
	}

	writeJSON(w, http.StatusOK, doorStatsResponse{
		Stats:  s.controller.SnapshotStats(),
		Cycles: cycles,
	})
}
