package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/go-chi/chi/v5"
)

type FavoriteHandler struct {
	catalog ports.CatalogService
	log     *logger.ZapLogger
}

func NewFavoriteHandler(catalog ports.CatalogService, log *logger.ZapLogger) *FavoriteHandler {
	return &FavoriteHandler{catalog: catalog, log: log}
}

// GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := h.catalog.ListFavorites(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, "failed list favorites", err)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

// POST /api/throws/{id}/favorite
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	throwID := chi.URLParam(r, "id")

	fav, err := h.catalog.ToggleFavorite(r.Context(), UserID(r.Context()), throwID)
	if err != nil {
		writeError(w, h.log, "failed toggle favorite", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"throw_id": throwID,
		"favorite": fav,
	})
}
