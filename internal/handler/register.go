package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) RegisterHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Password == "" {
		h.writeError(rw, http.StatusBadRequest, "Name and password are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid email")
		return
	}

	token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		// Duplicate email answers 401, matching the login failure status.
		if errors.Is(err, service.ErrEmailTaken) {
			h.writeError(rw, http.StatusUnauthorized, "Email already in use")
			return
		}
		h.writeInternalError(rw, err, "Failed to register user")
		return
	}

	h.writeJSON(rw, http.StatusOK, models.TokenResponse{Token: token})
}
