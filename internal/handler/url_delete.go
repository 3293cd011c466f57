package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) DeleteURLHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return
	}

	urlID := chi.URLParam(r, "id")
	if urlID == "" {
		h.writeError(rw, http.StatusBadRequest, "Missing url id")
		return
	}

	if err := h.shortener.Delete(r.Context(), userID, urlID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.writeError(rw, http.StatusNotFound, "Not found")
			return
		}
		h.writeInternalError(rw, err, "Failed to delete url")
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}
