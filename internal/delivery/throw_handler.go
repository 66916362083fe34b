package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/go-chi/chi/v5"
)

type throwSubmitter interface {
	Submit(ctx context.Context, userID string, in domain.ThrowInput) (*models.GrenadeThrow, error)
}

var fileSlots = []string{
	domain.SlotVideo, domain.SlotThumbnail,
	domain.SlotSetupImage, domain.SlotAimImage, domain.SlotResultImage,
}

type ThrowHandler struct {
	catalog   ports.CatalogService
	submitter throwSubmitter
	log       *logger.ZapLogger
	maxUpload int64
}

func NewThrowHandler(catalog ports.CatalogService, submitter throwSubmitter, log *logger.ZapLogger, maxUpload int64) *ThrowHandler {
	return &ThrowHandler{
		catalog:   catalog,
		submitter: submitter,
		log:       log,
		maxUpload: maxUpload,
	}
}

// GET /api/maps/{id}/throws
func (h *ThrowHandler) ListByMap(w http.ResponseWriter, r *http.Request) {
	throws, err := h.catalog.ListThrows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "failed list throws", err)
		return
	}
	writeJSON(w, http.StatusOK, throws)
}

// GET /api/throws/mine
func (h *ThrowHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	throws, err := h.catalog.ListUserThrows(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, "failed list user throws", err)
		return
	}
	writeJSON(w, http.StatusOK, throws)
}

// GET /api/throws/{id}
func (h *ThrowHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.catalog.GetThrow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "failed get throw", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DELETE /api/throws/{id}
func (h *ThrowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteThrow(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, h.log, "failed delete throw", err)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "throw deleted",
		Fields:  map[string]any{"throwID": id},
	})
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/maps/{id}/throws, JSON or multipart/form-data
func (h *ThrowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		in  domain.ThrowInput
		err error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload*int64(len(fileSlots))+1<<20)
		var files []multipart.File
		in, files, err = h.readMultipart(r)
		defer func() {
			for _, f := range files {
				_ = f.Close()
			}
		}()
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		err = json.NewDecoder(r.Body).Decode(&in)
		if err != nil {
			err = domain.Invalid("body", "invalid json: "+err.Error())
		}
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = ports.ErrTooLarge
		case statusOf(err) == http.StatusInternalServerError:
			err = domain.Invalid("body", err.Error())
		}
		writeError(w, h.log, "failed read submission", err)
		return
	}

	in.MapID = chi.URLParam(r, "id")

	t, err := h.submitter.Submit(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, h.log, "failed create throw", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func parseCoordinate(form *multipart.Form, field string) (*float64, error) {
	vals := form.Value[field]
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
	if err != nil {
		return nil, domain.Invalid(field, "not a number")
	}
	return &v, nil
}

func (h *ThrowHandler) readMultipart(r *http.Request) (domain.ThrowInput, []multipart.File, error) {
	var in domain.ThrowInput
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return in, nil, err
	}
	form := r.MultipartForm

	in.Name = r.FormValue("name")
	in.Description = r.FormValue("description")
	in.GrenadeType = r.FormValue("grenade_type")
	in.Difficulty = r.FormValue("difficulty")
	in.Team = r.FormValue("team")
	in.MediaType = r.FormValue("media_type")
	in.VideoURL = r.FormValue("video_url")
	in.ThumbnailURL = r.FormValue("thumbnail_url")
	in.SetupImageURL = r.FormValue("setup_image_url")
	in.AimImageURL = r.FormValue("aim_image_url")
	in.ResultImageURL = r.FormValue("result_image_url")

	for _, v := range form.Value["throw_types"] {
		for _, tt := range strings.Split(v, ",") {
			if tt = strings.TrimSpace(tt); tt != "" {
				in.ThrowTypes = append(in.ThrowTypes, tt)
			}
		}
	}

	for field, dst := range map[string]**float64{
		"throw_point_x":   &in.ThrowPointX,
		"throw_point_y":   &in.ThrowPointY,
		"landing_point_x": &in.LandingPointX,
		"landing_point_y": &in.LandingPointY,
	} {
		v, err := parseCoordinate(form, field)
		if err != nil {
			return in, nil, err
		}
		*dst = v
	}

	var files []multipart.File
	in.Files = map[string]domain.MediaFile{}
	for _, slot := range fileSlots {
		f, hdr, err := r.FormFile(slot)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return in, files, err
		}
		files = append(files, f)
		if hdr.Size > h.maxUpload {
			return in, files, ports.ErrTooLarge
		}
		in.Files[slot] = domain.MediaFile{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Body:        f,
		}
	}
	return in, files, nil
}
