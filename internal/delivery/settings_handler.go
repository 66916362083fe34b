package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
)

type SettingsHandler struct {
	auth    ports.AuthService
	catalog ports.CatalogService
	log     *logger.ZapLogger
}

func NewSettingsHandler(auth ports.AuthService, catalog ports.CatalogService, log *logger.ZapLogger) *SettingsHandler {
	return &SettingsHandler{auth: auth, catalog: catalog, log: log}
}

type settingsResponse struct {
	Profile       *models.User `json:"profile"`
	ThrowCount    int          `json:"throw_count"`
	FavoriteCount int          `json:"favorite_count"`
}

// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserID(ctx)

	profile, err := h.auth.Profile(ctx, userID)
	if err != nil {
		writeError(w, h.log, "failed load profile", err)
		return
	}
	throws, err := h.catalog.ListUserThrows(ctx, userID)
	if err != nil {
		writeError(w, h.log, "failed list user throws", err)
		return
	}
	favs, err := h.catalog.ListFavorites(ctx, userID)
	if err != nil {
		writeError(w, h.log, "failed list favorites", err)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		Profile:       profile,
		ThrowCount:    len(throws),
		FavoriteCount: len(favs),
	})
}
