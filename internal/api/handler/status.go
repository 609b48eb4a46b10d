package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/netzstatus/netzstatus/internal/api/models"
	"github.com/netzstatus/netzstatus/internal/api/response"
	"github.com/netzstatus/netzstatus/internal/monitor"
)

// maxSelectedLines caps the filter payload so a runaway client cannot
// persist an unbounded array.
const maxSelectedLines = 200

// StatusHandler handles the network status endpoints.
type StatusHandler struct {
	service *monitor.Service
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(service *monitor.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// GetStatus handles GET /v1/status - the current network verdict.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, monitor.ErrNoData) {
			response.ServiceUnavailable(w, r, "no departure data available")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, snapshot)
}

// GetLines handles GET /v1/status/lines - available lines and the
// active selection.
func (h *StatusHandler) GetLines(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Current(r.Context())
	if err != nil {
		if errors.Is(err, monitor.ErrNoData) {
			response.ServiceUnavailable(w, r, "no departure data available")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, snapshot.Filter)
}

// PutLines handles PUT /v1/status/lines - replace the line selection.
// An empty array clears the filter.
func (h *StatusHandler) PutLines(w http.ResponseWriter, r *http.Request) {
	var input models.LineSelection
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body")
		return
	}
	if len(input.SelectedLines) > maxSelectedLines {
		response.BadRequest(w, r, "too many selected lines")
		return
	}
	for _, line := range input.SelectedLines {
		if line == "" {
			response.BadRequest(w, r, "selected lines must not be empty strings")
			return
		}
	}

	snapshot, err := h.service.SetSelectedLines(r.Context(), input.SelectedLines)
	if err != nil {
		if errors.Is(err, monitor.ErrNoData) {
			response.ServiceUnavailable(w, r, "no departure data available")
			return
		}
		response.InternalError(w, r, "internal server error")
		return
	}

	response.JSON(w, r, http.StatusOK, snapshot)
}
