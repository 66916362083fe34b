package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/grenades/internal/metrics"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth      *AuthHandler
	Maps      *MapHandler
	Throws    *ThrowHandler
	Favorites *FavoriteHandler
	Media     *MediaHandler
	Settings  *SettingsHandler
}

func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, status, time.Since(start))
		})
	}
}

func RegisterRoutes(r chi.Router, auth ports.AuthService, h Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		r.Post("/auth/signup", h.Auth.SignUp)
		r.Post("/auth/signin", h.Auth.SignIn)

		r.Get("/maps", h.Maps.List)
		r.Get("/maps/{id}", h.Maps.View)
		r.Get("/maps/{id}/throws", h.Throws.ListByMap)
		r.Get("/throws/{id}", h.Throws.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Post("/maps/{id}/throws", h.Throws.Create)
			r.Get("/throws/mine", h.Throws.ListMine)
			r.Delete("/throws/{id}", h.Throws.Delete)
			r.Post("/throws/{id}/favorite", h.Favorites.Toggle)
			r.Get("/favorites", h.Favorites.List)
			r.Post("/media", h.Media.Upload)
			r.Get("/settings", h.Settings.Get)
		})
	})
}
