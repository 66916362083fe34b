package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/ports"
)

type errorBody struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ports.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ports.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err as {"error": ...}. Server-side failures are logged
// and their message is not echoed back.
func writeError(w http.ResponseWriter, log *logger.ZapLogger, msg string, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields()
	}

	if status == http.StatusInternalServerError {
		log.Log(logger.LogEntry{
			Level:   "error",
			Message: msg,
			Error:   err,
		})
		body.Error = msg
	}
	writeJSON(w, status, body)
}
