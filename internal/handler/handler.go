package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/service"
)

type Handler struct {
	auth      *service.AuthService
	shortener *service.ShortenerService
	logger    *zap.Logger
}

func NewHandler(auth *service.AuthService, shortener *service.ShortenerService, logger *zap.Logger) *Handler {
	return &Handler{
		auth:      auth,
		shortener: shortener,
		logger:    logger,
	}
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(rw http.ResponseWriter, status int, message string) {
	h.writeJSON(rw, status, models.ErrorResponse{Message: message})
}

func (h *Handler) writeInternalError(rw http.ResponseWriter, err error, msg string) {
	h.logger.Error(msg, zap.Error(err))
	h.writeError(rw, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
