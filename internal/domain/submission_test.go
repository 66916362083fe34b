package domain

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/Vovarama1992/grenades/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func validInput() ThrowInput {
	return ThrowInput{
		MapID:         "dust2",
		Name:          "  Xbox smoke ",
		GrenadeType:   "smoke",
		ThrowPointX:   ptr(20),
		ThrowPointY:   ptr(30),
		LandingPointX: ptr(45),
		LandingPointY: ptr(50),
		VideoURL:      "https://youtu.be/xbox",
	}
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	var names []string
	for _, fe := range ve.Fields() {
		names = append(names, fe.Field)
	}
	return names
}

func TestValidateAppliesDefaults(t *testing.T) {
	in := validInput()
	in.ThrowPointX = nil

	require.NoError(t, in.Validate())
	th := in.Throw()

	assert.Equal(t, "Xbox smoke", th.Name)
	assert.Equal(t, models.DifficultyMedium, th.Difficulty)
	assert.Equal(t, models.TeamBoth, th.Team)
	assert.Equal(t, models.MediaVideo, th.MediaType)
	assert.Equal(t, []models.ThrowType{models.ThrowStanding}, th.ThrowTypes)
	assert.Equal(t, 50.0, th.ThrowPointX)
	assert.Equal(t, 30.0, th.ThrowPointY)
	assert.Nil(t, th.Description)
	require.NotNil(t, th.VideoURL)
	assert.Equal(t, "https://youtu.be/xbox", *th.VideoURL)
	assert.False(t, th.IsPublic)
	assert.False(t, th.IsVerified)
}

func TestValidateNormalizesUnicode(t *testing.T) {
	in := validInput()
	in.Name = "Cafe\u0301 smoke"

	require.NoError(t, in.Validate())
	assert.Equal(t, "Caf\u00e9 smoke", in.Throw().Name)
}

func TestValidateReportsEveryField(t *testing.T) {
	in := ThrowInput{
		Name:          "   ",
		GrenadeType:   "nuke",
		Team:          "spectators",
		ThrowTypes:    []string{"standing", "moonwalk"},
		ThrowPointX:   ptr(-1),
		LandingPointY: ptr(math.NaN()),
	}

	err := in.Validate()

	assert.ElementsMatch(t, []string{
		"map_id", "name", "grenade_type", "team", "throw_types",
		"throw_point_x", "landing_point_y", "video_url",
	}, fieldNames(t, err))
	assert.True(t, errors.Is(err, FieldError{Field: "map_id", Message: "required"}))
}

func TestValidateMediaConsistency(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*ThrowInput)
		field string
	}{
		{"video without url or file", func(in *ThrowInput) { in.VideoURL = "" }, "video_url"},
		{"screenshots without images", func(in *ThrowInput) { in.MediaType = "screenshots" }, "images"},
		{"unknown media type", func(in *ThrowInput) { in.MediaType = "gif" }, "media_type"},
		{"image slot with video file", func(in *ThrowInput) {
			in.Files = map[string]MediaFile{SlotAimImage: {Filename: "a.mp4", ContentType: "video/mp4", Body: strings.NewReader("x")}}
		}, SlotAimImage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(&in)
			assert.Equal(t, []string{tc.field}, fieldNames(t, in.Validate()))
		})
	}
}

func TestValidatePendingFilesCountAsMedia(t *testing.T) {
	in := validInput()
	in.VideoURL = ""
	in.Files = map[string]MediaFile{SlotVideo: {Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("x")}}
	assert.NoError(t, in.Validate())

	shots := validInput()
	shots.MediaType = "screenshots"
	shots.Files = map[string]MediaFile{SlotResultImage: {Filename: "r.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")}}
	assert.NoError(t, shots.Validate())
}

func TestSubmitUploadsThenCreates(t *testing.T) {
	f := newCatalog(t)
	sub := NewSubmissionService(f.svc)

	in := validInput()
	in.VideoURL = ""
	in.Files = map[string]MediaFile{
		SlotVideo:     {Filename: "clip.MP4", ContentType: "video/mp4", Body: strings.NewReader("video")},
		SlotThumbnail: {Filename: "thumb.jpg", ContentType: "image/jpeg", Body: strings.NewReader("thumb")},
	}

	th, err := sub.Submit(context.Background(), "user-1", in)
	require.NoError(t, err)

	require.NotNil(t, th.VideoURL)
	assert.True(t, strings.HasPrefix(*th.VideoURL, "https://cdn.test/media/user-1/dust2/video/"), *th.VideoURL)
	assert.True(t, strings.HasSuffix(*th.VideoURL, ".mp4"))
	require.NotNil(t, th.ThumbnailURL)
	assert.Contains(t, *th.ThumbnailURL, "/dust2/thumbnail/")
	assert.Equal(t, 2, f.storage.Len())

	saved, err := f.svc.GetThrow(context.Background(), th.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", *saved.UserID)
}

func TestSubmitInvalidUploadsNothing(t *testing.T) {
	f := newCatalog(t)
	sub := NewSubmissionService(f.svc)

	in := validInput()
	in.Name = ""
	in.Files = map[string]MediaFile{SlotVideo: {Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("video")}}

	_, err := sub.Submit(context.Background(), "user-1", in)

	assert.Equal(t, []string{"name"}, fieldNames(t, err))
	assert.Zero(t, f.storage.Len())
	assert.Zero(t, f.store.Calls["InsertThrow"])
}

func TestSubmitUploadFailureSkipsInsert(t *testing.T) {
	f := newCatalog(t)
	f.storage.Err = ports.ErrTooLarge
	sub := NewSubmissionService(f.svc)

	in := validInput()
	in.Files = map[string]MediaFile{SlotThumbnail: {Filename: "t.png", ContentType: "image/png", Body: strings.NewReader("x")}}

	_, err := sub.Submit(context.Background(), "user-1", in)

	assert.ErrorIs(t, err, ports.ErrTooLarge)
	assert.Zero(t, f.store.Calls["InsertThrow"])
}

func TestSubmitRequiresUser(t *testing.T) {
	f := newCatalog(t)

	_, err := NewSubmissionService(f.svc).Submit(context.Background(), "", validInput())
	assert.ErrorIs(t, err, ports.ErrUnauthorized)
}

func TestSubmitFailedInsertRemovesUploads(t *testing.T) {
	f := newCatalog(t)
	f.store.Fail["InsertThrow"] = errors.New("connection reset")
	sub := NewSubmissionService(f.svc)

	in := validInput()
	in.Files = map[string]MediaFile{
		SlotVideo:      {Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("video")},
		SlotSetupImage: {Filename: "setup.png", ContentType: "image/png", Body: strings.NewReader("png")},
	}

	_, err := sub.Submit(context.Background(), "user-1", in)

	require.Error(t, err)
	assert.Equal(t, 1, f.store.Calls["InsertThrow"])
	assert.Zero(t, f.storage.Len())
}

// failAfter lets the first n uploads through and rejects the rest.
type failAfter struct {
	ports.MediaStorage
	n int
}

func (s *failAfter) Upload(ctx context.Context, p, contentType string, body io.Reader) (string, error) {
	if s.n == 0 {
		return "", ports.ErrTooLarge
	}
	s.n--
	return s.MediaStorage.Upload(ctx, p, contentType, body)
}

func TestSubmitFailedUploadRemovesEarlierUploads(t *testing.T) {
	store := testutil.NewStore()
	store.AddMap(models.Map{ID: "dust2", Name: "dust2", IsActive: true})
	storage := testutil.NewStorage()
	svc := NewCatalogService(store.Maps(), store.Throws(), store.Favorites(), &failAfter{MediaStorage: storage, n: 1},
		time.Minute, testutil.NopLogger(), nil)
	t.Cleanup(svc.Close)

	in := validInput()
	in.Files = map[string]MediaFile{
		SlotVideo:     {Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("video")},
		SlotThumbnail: {Filename: "thumb.png", ContentType: "image/png", Body: strings.NewReader("png")},
	}

	_, err := NewSubmissionService(svc).Submit(context.Background(), "user-1", in)

	assert.ErrorIs(t, err, ports.ErrTooLarge)
	assert.Zero(t, storage.Len())
	assert.Zero(t, store.Calls["InsertThrow"])
}

func TestSubmitUnknownMapUploadsNothing(t *testing.T) {
	f := newCatalog(t)
	f.store.AddMap(models.Map{ID: "cache", Name: "cache", IsActive: false})
	sub := NewSubmissionService(f.svc)

	for _, mapID := range []string{"nuke", "cache"} {
		in := validInput()
		in.MapID = mapID
		in.Files = map[string]MediaFile{SlotVideo: {Filename: "clip.mp4", ContentType: "video/mp4", Body: strings.NewReader("video")}}

		_, err := sub.Submit(context.Background(), "user-1", in)
		assert.ErrorIs(t, err, ports.ErrNotFound, mapID)
	}
	assert.Zero(t, f.storage.Len())
	assert.Zero(t, f.store.Calls["InsertThrow"])
}
