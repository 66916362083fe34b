package delivery

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	srv     *httptest.Server
	store   *testutil.Store
	storage *testutil.Storage
	catalog *domain.CatalogService
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := testutil.NopLogger()

	store := testutil.NewStore()
	store.AddMap(models.Map{ID: "dust2", Name: "dust2", DisplayName: "Dust II", IsActive: true})
	store.AddMap(models.Map{ID: "cache", Name: "cache", DisplayName: "Cache", IsActive: false})

	storage := testutil.NewStorage()
	auth := domain.NewAuthService(store.Users(), "test-secret")
	catalog := domain.NewCatalogService(store.Maps(), store.Throws(), store.Favorites(), storage, time.Minute, log, nil)
	t.Cleanup(catalog.Close)

	const maxUpload = 1 << 20
	h := Handlers{
		Auth:      NewAuthHandler(auth, log),
		Maps:      NewMapHandler(catalog, log),
		Throws:    NewThrowHandler(catalog, domain.NewSubmissionService(catalog), log, maxUpload),
		Favorites: NewFavoriteHandler(catalog, log),
		Media:     NewMediaHandler(catalog, log, maxUpload),
		Settings:  NewSettingsHandler(auth, catalog, log),
	}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(nil))
	RegisterRoutes(r, auth, h)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &apiFixture{srv: srv, store: store, storage: storage, catalog: catalog}
}

func (f *apiFixture) do(t *testing.T, method, path, token, contentType string, body io.Reader) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("X-Auth", token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func (f *apiFixture) send(t *testing.T, method, path, token string, v any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return f.do(t, method, path, token, "application/json", body)
}

func (f *apiFixture) login(t *testing.T, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "hunter22"}

	status, _ := f.send(t, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, status)

	status, body := f.send(t, http.MethodPost, "/api/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, status)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (f *apiFixture) createSmoke(t *testing.T, token string) models.GrenadeThrow {
	t.Helper()
	status, body := f.send(t, http.MethodPost, "/api/maps/dust2/throws", token, map[string]any{
		"name":            "Xbox smoke",
		"grenade_type":    "smoke",
		"team":            "t",
		"difficulty":      "easy",
		"throw_point_x":   20,
		"throw_point_y":   30,
		"landing_point_x": 45,
		"landing_point_y": 50,
		"video_url":       "https://youtu.be/xbox",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var th models.GrenadeThrow
	require.NoError(t, json.Unmarshal(body, &th))
	return th
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestMapViewNotFound(t *testing.T) {
	f := newAPI(t)

	for _, id := range []string{"nuke", "cache"} {
		status, body := f.do(t, http.MethodGet, "/api/maps/"+id, "", "", nil)
		assert.Equal(t, http.StatusNotFound, status, id)
		assert.Equal(t, "map not found", decodeError(t, body).Error, id)
	}
}

func TestListMapsOnlyActive(t *testing.T) {
	f := newAPI(t)

	status, body := f.do(t, http.MethodGet, "/api/maps", "", "", nil)
	require.Equal(t, http.StatusOK, status)

	var maps []models.Map
	require.NoError(t, json.Unmarshal(body, &maps))
	require.Len(t, maps, 1)
	assert.Equal(t, "dust2", maps[0].ID)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPI(t)

	status, body := f.send(t, http.MethodPost, "/api/maps/dust2/throws", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing token", decodeError(t, body).Error)

	status, body = f.do(t, http.MethodGet, "/api/favorites", "not-a-jwt", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", decodeError(t, body).Error)

	status, _ = f.do(t, http.MethodGet, "/api/settings?token=not-a-jwt", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignInWrongPassword(t *testing.T) {
	f := newAPI(t)
	f.login(t, "a@b.co")

	status, _ := f.send(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "a@b.co", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.send(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@b.co", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestCreateThrowValidation(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	status, body := f.send(t, http.MethodPost, "/api/maps/dust2/throws", token, map[string]any{
		"grenade_type":  "nuke",
		"throw_point_x": 120,
	})
	require.Equal(t, http.StatusBadRequest, status)

	var fields []string
	for _, fe := range decodeError(t, body).Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "grenade_type", "throw_point_x", "video_url"}, fields)
	assert.Zero(t, f.store.Calls["InsertThrow"])

	status, _ = f.do(t, http.MethodPost, "/api/maps/dust2/throws", token, "application/json", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMapViewFiltersAndFavorites(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")
	created := f.createSmoke(t, token)

	status, body := f.do(t, http.MethodGet, "/api/maps/dust2?type=smoke&team=ct", "", "", nil)
	require.Equal(t, http.StatusOK, status)
	var view domain.MapView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Empty(t, view.Throws)

	status, body = f.do(t, http.MethodGet, "/api/maps/dust2?type=smoke", "", "", nil)
	require.Equal(t, http.StatusOK, status)
	view = domain.MapView{}
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Throws, 1)
	assert.Equal(t, created.ID, view.Throws[0].ID)
	assert.True(t, view.Throws[0].New)
	assert.False(t, view.Throws[0].Favorite)
	assert.Equal(t, 1, view.Stats.Easy)
	assert.Len(t, view.ThrowClusters, 1)
	assert.Len(t, view.Lines, 1)

	status, body = f.send(t, http.MethodPost, "/api/throws/"+created.ID+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"throw_id":"`+created.ID+`","favorite":true}`, string(body))

	status, body = f.do(t, http.MethodGet, "/api/maps/dust2?favorites=1", token, "", nil)
	require.Equal(t, http.StatusOK, status)
	view = domain.MapView{}
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Throws, 1)
	assert.True(t, view.Throws[0].Favorite)

	// anonymous callers have no favorites
	status, body = f.do(t, http.MethodGet, "/api/maps/dust2?favorites=1", "", "", nil)
	require.Equal(t, http.StatusOK, status)
	view = domain.MapView{}
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Empty(t, view.Throws)

	status, body = f.send(t, http.MethodPost, "/api/throws/"+created.ID+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"throw_id":"`+created.ID+`","favorite":false}`, string(body))
}

func TestToggleFavoriteUnknownThrow(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	status, _ := f.send(t, http.MethodPost, "/api/throws/missing/favorite", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteThrowOwnership(t *testing.T) {
	f := newAPI(t)
	owner := f.login(t, "owner@b.co")
	other := f.login(t, "other@b.co")
	created := f.createSmoke(t, owner)

	status, _ := f.do(t, http.MethodDelete, "/api/throws/"+created.ID, other, "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodDelete, "/api/throws/"+created.ID, owner, "", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = f.do(t, http.MethodGet, "/api/throws/"+created.ID, "", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListMineAndSettings(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")
	created := f.createSmoke(t, token)
	f.createSmoke(t, f.login(t, "other@b.co"))

	status, body := f.do(t, http.MethodGet, "/api/throws/mine", token, "", nil)
	require.Equal(t, http.StatusOK, status)
	var mine []models.GrenadeThrow
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	status, body = f.do(t, http.MethodGet, "/api/settings", token, "", nil)
	require.Equal(t, http.StatusOK, status)
	var settings struct {
		Profile       models.User `json:"profile"`
		ThrowCount    int         `json:"throw_count"`
		FavoriteCount int         `json:"favorite_count"`
	}
	require.NoError(t, json.Unmarshal(body, &settings))
	assert.Equal(t, "a@b.co", settings.Profile.Email)
	assert.Equal(t, 1, settings.ThrowCount)
	assert.Zero(t, settings.FavoriteCount)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][2]string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for slot, file := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+slot+`"; filename="`+file[0]+`"`)
		h.Set("Content-Type", file[1])
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestCreateThrowMultipart(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	ct, body := multipartBody(t, map[string]string{
		"name":            "Window flash",
		"grenade_type":    "flash",
		"media_type":      "screenshots",
		"throw_types":     "jump_throw, running_left",
		"landing_point_x": "12.5",
	}, map[string][2]string{
		domain.SlotAimImage: {"aim.png", "image/png"},
	})

	status, resp := f.do(t, http.MethodPost, "/api/maps/dust2/throws", token, ct, body)
	require.Equal(t, http.StatusCreated, status, string(resp))

	var th models.GrenadeThrow
	require.NoError(t, json.Unmarshal(resp, &th))
	assert.Equal(t, []models.ThrowType{models.ThrowJump, models.ThrowRunningLeft}, th.ThrowTypes)
	assert.Equal(t, 12.5, th.LandingPointX)
	assert.Equal(t, 50.0, th.ThrowPointX)
	require.NotNil(t, th.AimImageURL)
	assert.Contains(t, *th.AimImageURL, "/dust2/aim_image/")
	assert.Equal(t, 1, f.storage.Len())
}

func TestCreateThrowMultipartBadCoordinate(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	ct, body := multipartBody(t, map[string]string{
		"name":          "Window flash",
		"grenade_type":  "flash",
		"video_url":     "https://youtu.be/x",
		"throw_point_y": "north",
	}, nil)

	status, resp := f.do(t, http.MethodPost, "/api/maps/dust2/throws", token, ct, body)
	require.Equal(t, http.StatusBadRequest, status)
	require.Len(t, decodeError(t, resp).Fields, 1)
	assert.Equal(t, "throw_point_y", decodeError(t, resp).Fields[0].Field)
}

func TestMediaUpload(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	ct, body := multipartBody(t, map[string]string{"namespace": "dust2"}, map[string][2]string{
		"file": {"lineup.jpg", "image/jpeg"},
	})
	status, resp := f.do(t, http.MethodPost, "/api/media", token, ct, body)
	require.Equal(t, http.StatusCreated, status, string(resp))

	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(resp, &out))
	assert.True(t, strings.HasSuffix(out.URL, ".jpg"), out.URL)
	assert.Contains(t, out.URL, "/dust2/")

	ct, body = multipartBody(t, nil, map[string][2]string{"file": {"notes.txt", "text/plain"}})
	status, _ = f.do(t, http.MethodPost, "/api/media", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, status)

	ct, body = multipartBody(t, map[string]string{"namespace": "dust2"}, nil)
	status, _ = f.do(t, http.MethodPost, "/api/media", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateThrowUnknownMap(t *testing.T) {
	f := newAPI(t)
	token := f.login(t, "a@b.co")

	ct, body := multipartBody(t, map[string]string{
		"name":         "Ghost smoke",
		"grenade_type": "smoke",
	}, map[string][2]string{
		domain.SlotVideo: {"clip.mp4", "video/mp4"},
	})

	status, _ := f.do(t, http.MethodPost, "/api/maps/nuke/throws", token, ct, body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, f.storage.Len())
	assert.Zero(t, f.store.Calls["InsertThrow"])
}
