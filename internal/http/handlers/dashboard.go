package handlers

import (
	"net/http"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/internal/dashboard"
	"github.com/Znbmels/keremet/pkg/logging"
)

// DashboardHandler serves the role-specific appointment lists. The role
// comes from the stored session, never from the request.
type DashboardHandler struct {
	client *apiclient.Client
	logger *logging.Logger
}

func NewDashboardHandler(client *apiclient.Client, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{client: client, logger: logger}
}

func (h *DashboardHandler) source(w http.ResponseWriter, r *http.Request) (dashboard.AppointmentSource, bool) {
	sess, err := h.client.Store().Load(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return nil, false
	}
	if sess == nil {
		jsonError(w, "not signed in", http.StatusUnauthorized)
		return nil, false
	}
	src, err := dashboard.SourceFor(sess.Role, h.client)
	if err != nil {
		domainError(w, h.logger, err)
		return nil, false
	}
	return src, true
}

// Upcoming lists scheduled appointments for the signed-in user.
// GET /dashboard/upcoming
func (h *DashboardHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	appts, err := src.Upcoming(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// History lists past appointments for the signed-in user.
// GET /dashboard/history
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	appts, err := src.History(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}
