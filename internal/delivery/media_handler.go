package delivery

import (
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/ports"
)

type MediaHandler struct {
	catalog   ports.CatalogService
	log       *logger.ZapLogger
	maxUpload int64
}

func NewMediaHandler(catalog ports.CatalogService, log *logger.ZapLogger, maxUpload int64) *MediaHandler {
	return &MediaHandler{
		catalog:   catalog,
		log:       log,
		maxUpload: maxUpload,
	}
}

// POST /api/media, multipart field "file", optional "namespace"
// Responds with {"path", "url"}.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.log, "upload too large", ports.ErrTooLarge)
			return
		}
		writeError(w, h.log, "missing file", domain.Invalid("file", "required"))
		return
	}
	defer f.Close()

	if hdr.Size > h.maxUpload {
		writeError(w, h.log, "upload too large", ports.ErrTooLarge)
		return
	}

	obj, err := h.catalog.UploadMedia(
		r.Context(),
		UserID(r.Context()),
		r.FormValue("namespace"),
		hdr.Filename,
		hdr.Header.Get("Content-Type"),
		f,
	)
	if err != nil {
		writeError(w, h.log, "failed upload media", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "media upload",
		Fields: map[string]any{
			"size": hdr.Size,
			"url":  obj.URL,
		},
	})

	writeJSON(w, http.StatusCreated, obj)
}
