package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) LoginHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		h.writeError(rw, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeError(rw, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.writeError(rw, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.writeInternalError(rw, err, "Failed to log in user")
		return
	}

	h.writeJSON(rw, http.StatusOK, models.TokenResponse{Token: token})
}
