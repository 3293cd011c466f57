package handler

import (
	"net/http"
	"time"

	"github.com/nlevin/shortly/internal/models"
)

func (h *Handler) StatusHandler(rw http.ResponseWriter, r *http.Request) {
	h.writeJSON(rw, http.StatusOK, models.StatusResponse{
		Timestamp: time.Now().UnixMilli(),
	})
}
