package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) ResolveHandler(rw http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if hash == "" {
		h.writeError(rw, http.StatusBadRequest, "Empty hash")
		return
	}

	record, err := h.shortener.Resolve(r.Context(), hash)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.writeError(rw, http.StatusNotFound, "Not found")
			return
		}
		h.writeInternalError(rw, err, "Failed to resolve url")
		return
	}

	h.writeJSON(rw, http.StatusOK, record)
}
