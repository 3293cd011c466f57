package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) CreateURLHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateURLRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.shortener.Create(r.Context(), userID, req.URL)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) || errors.Is(err, service.ErrInvalidURL) {
			h.writeError(rw, http.StatusBadRequest, "Invalid url")
			return
		}
		h.writeInternalError(rw, err, "Failed to create short url")
		return
	}

	rw.WriteHeader(http.StatusCreated)
}
