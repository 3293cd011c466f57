package handler

import (
	"errors"
	"net/http"

	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) ProfileHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
			return
		}
		h.writeInternalError(rw, err, "Failed to load profile")
		return
	}

	h.writeJSON(rw, http.StatusOK, user)
}
