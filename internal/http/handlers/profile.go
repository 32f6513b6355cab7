package handlers

import (
	"net/http"

	"github.com/Znbmels/keremet/internal/apiclient"
	"github.com/Znbmels/keremet/pkg/logging"
)

// ProfileHandler serves the signed-in user's account.
type ProfileHandler struct {
	client *apiclient.Client
	logger *logging.Logger
}

func NewProfileHandler(client *apiclient.Client, logger *logging.Logger) *ProfileHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProfileHandler{client: client, logger: logger}
}

// Get returns the caller's profile.
// GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.client.Profile(r.Context())
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Update changes the caller's profile fields.
// PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req apiclient.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	profile, err := h.client.UpdateProfile(r.Context(), req)
	if err != nil {
		domainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
