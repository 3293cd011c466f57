package handler

import (
	"net/http"
	"strconv"

	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/service"
)

func (h *Handler) ListURLsHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		h.writeError(rw, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", service.DefaultLimit)

	records, pages, err := h.shortener.List(r.Context(), userID, page, limit)
	if err != nil {
		h.writeInternalError(rw, err, "Failed to list urls")
		return
	}

	h.writeJSON(rw, http.StatusOK, models.URLListResponse{
		Data:  records,
		Pages: pages,
	})
}

func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
