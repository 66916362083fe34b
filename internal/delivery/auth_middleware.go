package delivery

import (
	"context"
	"net/http"

	"github.com/Vovarama1992/grenades/internal/ports"
)

type ctxKey struct{}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// AuthMiddleware attaches the caller's user id when a valid X-Auth token is
// present. Anonymous requests pass through; a bad token is rejected.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Auth")
			if token == "" {
				// browsers cannot set headers on websocket upgrades
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
