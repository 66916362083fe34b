package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/go-chi/chi/v5"
)

type MapHandler struct {
	catalog ports.CatalogService
	log     *logger.ZapLogger
	now     func() time.Time
}

func NewMapHandler(catalog ports.CatalogService, log *logger.ZapLogger) *MapHandler {
	return &MapHandler{
		catalog: catalog,
		log:     log,
		now:     time.Now,
	}
}

// GET /api/maps
func (h *MapHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.catalog.ListMaps(r.Context())
	if err != nil {
		writeError(w, h.log, "failed list maps", err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func filterFromQuery(r *http.Request) domain.ThrowFilter {
	q := r.URL.Query()
	f := domain.ThrowFilter{
		Type: q.Get("type"),
		Team: q.Get("team"),
	}
	switch q.Get("favorites") {
	case "1", "true", "on":
		f.FavoritesOnly = true
	}
	if f.Type == "" {
		f.Type = domain.FilterAll
	}
	if f.Team == "" {
		f.Team = domain.FilterAll
	}
	return f
}

// GET /api/maps/{id}?type=&team=&favorites=
func (h *MapHandler) View(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	m, err := h.catalog.GetMap(r.Context(), id)
	if err == nil && !m.IsActive {
		err = ports.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "map not found"})
			return
		}
		writeError(w, h.log, "failed get map", err)
		return
	}

	favorites := domain.FavoriteSet{}
	if userID := UserID(r.Context()); userID != "" {
		favs, err := h.catalog.ListFavorites(r.Context(), userID)
		if err != nil {
			writeError(w, h.log, "failed list favorites", err)
			return
		}
		favorites = domain.NewFavoriteSet(favs)
	}

	view := domain.BuildMapView(*m, filterFromQuery(r), favorites, h.now())
	writeJSON(w, http.StatusOK, view)
}
