package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/api/middleware"
	"github.com/netzstatus/netzstatus/internal/api/response"
	"github.com/netzstatus/netzstatus/internal/monitor"
	"github.com/netzstatus/netzstatus/internal/prefs"
)

// AdminHandler handles privileged operational endpoints.
type AdminHandler struct {
	service *monitor.Service
	prefs   *prefs.Store
	logger  zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *monitor.Service, prefsStore *prefs.Store, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		prefs:   prefsStore,
		logger:  logger,
	}
}

// ForceRefresh handles POST /v1/admin/refresh - bypass the snapshot cache
// and poll all stations now.
func (h *AdminHandler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().
		Str("subject", middleware.GetAdminSubject(r.Context())).
		Msg("admin forced refresh")

	snapshot, err := h.service.Refresh(r.Context())
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

// ClearPreferences handles DELETE /v1/admin/preferences - drop the stored
// line selection and recompute the snapshot without a filter.
func (h *AdminHandler) ClearPreferences(w http.ResponseWriter, r *http.Request) {
	h.logger.Info().
		Str("subject", middleware.GetAdminSubject(r.Context())).
		Msg("admin cleared stored preferences")

	// Reset the in-memory selection first so the cached snapshot stops
	// filtering; tolerate ErrNoData, which just means nothing was
	// computed yet.
	if _, err := h.service.SetSelectedLines(r.Context(), nil); err != nil && !errors.Is(err, monitor.ErrNoData) {
		response.InternalError(w, r, "internal server error")
		return
	}

	if err := h.prefs.Clear(r.Context()); err != nil {
		response.InternalError(w, r, "failed to clear stored preferences")
		return
	}

	response.NoContent(w, r)
}
