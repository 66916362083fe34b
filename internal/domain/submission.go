package domain

import (
	"context"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"
)

const defaultCoordinate = 50.0

// File slots accepted by a submission.
const (
	SlotVideo       = "video"
	SlotThumbnail   = "thumbnail"
	SlotSetupImage  = "setup_image"
	SlotAimImage    = "aim_image"
	SlotResultImage = "result_image"
)

var imageSlots = []string{SlotSetupImage, SlotAimImage, SlotResultImage}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field failure of one submission.
type ValidationError struct {
	err error
}

// Invalid reports a single bad field.
func Invalid(field, message string) error {
	return &ValidationError{err: FieldError{Field: field, Message: message}}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return multierr.Errors(e.err)
}

func (e *ValidationError) Fields() []FieldError {
	var out []FieldError
	for _, err := range multierr.Errors(e.err) {
		if fe, ok := err.(FieldError); ok {
			out = append(out, fe)
		}
	}
	return out
}

type MediaFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ThrowInput is the raw form payload. Nil coordinates fall back to the map centre.
type ThrowInput struct {
	MapID          string   `json:"map_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	GrenadeType    string   `json:"grenade_type"`
	Difficulty     string   `json:"difficulty"`
	Team           string   `json:"team"`
	ThrowTypes     []string `json:"throw_types"`
	ThrowPointX    *float64 `json:"throw_point_x"`
	ThrowPointY    *float64 `json:"throw_point_y"`
	LandingPointX  *float64 `json:"landing_point_x"`
	LandingPointY  *float64 `json:"landing_point_y"`
	MediaType      string   `json:"media_type"`
	VideoURL       string   `json:"video_url"`
	ThumbnailURL   string   `json:"thumbnail_url"`
	SetupImageURL  string   `json:"setup_image_url"`
	AimImageURL    string   `json:"aim_image_url"`
	ResultImageURL string   `json:"result_image_url"`

	Files map[string]MediaFile `json:"-"`
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func coord(v *float64) float64 {
	if v == nil {
		return defaultCoordinate
	}
	return *v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (in *ThrowInput) normalize() {
	in.MapID = strings.TrimSpace(in.MapID)
	in.Name = clean(in.Name)
	in.Description = clean(in.Description)
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.SetupImageURL = strings.TrimSpace(in.SetupImageURL)
	in.AimImageURL = strings.TrimSpace(in.AimImageURL)
	in.ResultImageURL = strings.TrimSpace(in.ResultImageURL)

	if in.Difficulty == "" {
		in.Difficulty = string(models.DifficultyMedium)
	}
	if in.Team == "" {
		in.Team = string(models.TeamBoth)
	}
	if in.MediaType == "" {
		in.MediaType = string(models.MediaVideo)
	}
	if len(in.ThrowTypes) == 0 {
		in.ThrowTypes = []string{string(models.ThrowStanding)}
	}
}

func (in *ThrowInput) hasFile(slot string) bool {
	f, ok := in.Files[slot]
	return ok && f.Body != nil
}

func checkCoordinate(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return FieldError{Field: field, Message: "must be between 0 and 100"}
	}
	return nil
}

func checkFileType(slot string, f MediaFile) error {
	want := "image/"
	if slot == SlotVideo {
		want = "video/"
	}
	if !strings.HasPrefix(f.ContentType, want) {
		return FieldError{Field: slot, Message: "unsupported content type " + f.ContentType}
	}
	return nil
}

// Validate normalizes in and reports every invalid field at once. Pending files
// count as media for the consistency check.
func (in *ThrowInput) Validate() error {
	in.normalize()

	var errs error
	if in.MapID == "" {
		errs = multierr.Append(errs, FieldError{Field: "map_id", Message: "required"})
	}
	if in.Name == "" {
		errs = multierr.Append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !models.GrenadeType(in.GrenadeType).Valid() {
		errs = multierr.Append(errs, FieldError{Field: "grenade_type", Message: "unknown grenade type " + in.GrenadeType})
	}
	if !models.Difficulty(in.Difficulty).Valid() {
		errs = multierr.Append(errs, FieldError{Field: "difficulty", Message: "unknown difficulty " + in.Difficulty})
	}
	if !models.Team(in.Team).Valid() {
		errs = multierr.Append(errs, FieldError{Field: "team", Message: "unknown team " + in.Team})
	}
	for _, tt := range in.ThrowTypes {
		if !models.ThrowType(tt).Valid() {
			errs = multierr.Append(errs, FieldError{Field: "throw_types", Message: "unknown throw type " + tt})
		}
	}

	errs = multierr.Combine(errs,
		checkCoordinate("throw_point_x", coord(in.ThrowPointX)),
		checkCoordinate("throw_point_y", coord(in.ThrowPointY)),
		checkCoordinate("landing_point_x", coord(in.LandingPointX)),
		checkCoordinate("landing_point_y", coord(in.LandingPointY)),
	)

	for slot, f := range in.Files {
		if f.Body == nil {
			continue
		}
		errs = multierr.Append(errs, checkFileType(slot, f))
	}

	switch models.MediaType(in.MediaType) {
	case models.MediaVideo:
		if in.VideoURL == "" && !in.hasFile(SlotVideo) {
			errs = multierr.Append(errs, FieldError{Field: "video_url", Message: "required for video throws"})
		}
	case models.MediaScreenshots:
		found := in.SetupImageURL != "" || in.AimImageURL != "" || in.ResultImageURL != ""
		for _, slot := range imageSlots {
			found = found || in.hasFile(slot)
		}
		if !found {
			errs = multierr.Append(errs, FieldError{Field: "images", Message: "at least one screenshot is required"})
		}
	default:
		errs = multierr.Append(errs, FieldError{Field: "media_type", Message: "unknown media type " + in.MediaType})
	}

	if errs != nil {
		return &ValidationError{err: errs}
	}
	return nil
}

// Throw builds the record to insert. Call after Validate and after uploads.
func (in *ThrowInput) Throw() *models.GrenadeThrow {
	types := make([]models.ThrowType, 0, len(in.ThrowTypes))
	for _, tt := range in.ThrowTypes {
		types = append(types, models.ThrowType(tt))
	}
	return &models.GrenadeThrow{
		MapID:          in.MapID,
		Name:           in.Name,
		Description:    optional(in.Description),
		GrenadeType:    models.GrenadeType(in.GrenadeType),
		Difficulty:     models.Difficulty(in.Difficulty),
		Team:           models.Team(in.Team),
		ThrowTypes:     types,
		ThrowPointX:    coord(in.ThrowPointX),
		ThrowPointY:    coord(in.ThrowPointY),
		LandingPointX:  coord(in.LandingPointX),
		LandingPointY:  coord(in.LandingPointY),
		MediaType:      models.MediaType(in.MediaType),
		VideoURL:       optional(in.VideoURL),
		ThumbnailURL:   optional(in.ThumbnailURL),
		SetupImageURL:  optional(in.SetupImageURL),
		AimImageURL:    optional(in.AimImageURL),
		ResultImageURL: optional(in.ResultImageURL),
	}
}

func (in *ThrowInput) setURL(slot, url string) {
	switch slot {
	case SlotVideo:
		in.VideoURL = url
	case SlotThumbnail:
		in.ThumbnailURL = url
	case SlotSetupImage:
		in.SetupImageURL = url
	case SlotAimImage:
		in.AimImageURL = url
	case SlotResultImage:
		in.ResultImageURL = url
	}
}

type SubmissionService struct {
	catalog ports.CatalogService
}

func NewSubmissionService(catalog ports.CatalogService) *SubmissionService {
	return &SubmissionService{catalog: catalog}
}

// Submit validates the form, uploads attached media and writes the throw.
// Nothing is uploaded or written when validation fails, and uploads are
// removed again when a later step fails.
func (s *SubmissionService) Submit(ctx context.Context, userID string, in ThrowInput) (*models.GrenadeThrow, error) {
	if userID == "" {
		return nil, ports.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	m, err := s.catalog.GetMap(ctx, in.MapID)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, fmt.Errorf("map %s: %w", in.MapID, ports.ErrNotFound)
	}

	var uploaded []string
	discard := func(err error) (*models.GrenadeThrow, error) {
		cleanupCtx := context.WithoutCancel(ctx)
		for _, p := range uploaded {
			_ = s.catalog.RemoveMedia(cleanupCtx, userID, p)
		}
		return nil, err
	}

	for _, slot := range []string{SlotVideo, SlotThumbnail, SlotSetupImage, SlotAimImage, SlotResultImage} {
		if !in.hasFile(slot) {
			continue
		}
		f := in.Files[slot]
		obj, err := s.catalog.UploadMedia(ctx, userID, path.Join(in.MapID, slot), f.Filename, f.ContentType, f.Body)
		if err != nil {
			return discard(fmt.Errorf("upload %s: %w", slot, err))
		}
		uploaded = append(uploaded, obj.Path)
		in.setURL(slot, obj.URL)
	}

	created, err := s.catalog.CreateThrow(ctx, userID, in.Throw())
	if err != nil {
		return discard(err)
	}
	return created, nil
}
