package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"profile-service/internal/capture"
	"profile-service/internal/card"
	"profile-service/internal/config"
	"profile-service/internal/domain"
	"profile-service/internal/realtime"
	"profile-service/internal/repository"
	"profile-service/internal/service"
	"profile-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSurface struct{ shot []byte }

func (s stubSurface) WaitImages(context.Context, time.Duration) error { return nil }
func (s stubSurface) Capture(context.Context) ([]byte, error)        { return s.shot, nil }
func (s stubSurface) Close() error                                   { return nil }

type stubBrowser struct{ shot []byte }

func (b stubBrowser) Open(context.Context, string, float64) (capture.Surface, error) {
	return stubSurface{shot: b.shot}, nil
}
func (b stubBrowser) Close() error { return nil }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type testServer struct {
	*httptest.Server
	handler http.Handler
	t       *testing.T
}

func newTestServer(t *testing.T, withExporter bool) *testServer {
	t.Helper()
	logger := zap.NewNop()

	db, err := config.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repository.NewSQLiteProfileRepo(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	cfg := config.Config{
		PublicOrigin:   "http://cards.local",
		MaxUploadBytes: 5 << 20,
		MaxPhotoSide:   1024,
		CORSOrigins:    []string{"*"},
		RateLimit:      30,
		RateWindow:     time.Minute,
		RateBlock:      time.Minute,
	}

	hub := realtime.NewHub(logger)
	profiles := service.NewProfileService(repo, nil, hub, logger)
	uploads, err := service.NewUploadService(t.TempDir(), cfg.MaxUploadBytes, cfg.MaxPhotoSide, logger)
	require.NoError(t, err)
	renderer, err := card.NewRenderer()
	require.NoError(t, err)

	var exporter *capture.Exporter
	if withExporter {
		s := capture.DefaultSettings()
		s.Settle = 0
		s.Frames = 3
		s.FrameInterval = time.Millisecond
		exporter = capture.NewExporter(stubBrowser{shot: pngBytes(t, 4, 4)}, renderer, s, logger)
	}

	h := NewRouter(RouterDeps{
		Config:   cfg,
		Profiles: profiles,
		Uploads:  uploads,
		Renderer: renderer,
		Exporter: exporter,
		Hub:      hub,
		Logger:   logger,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, handler: h, t: t}
}

func (s *testServer) get(path string) (*http.Response, []byte) {
	s.t.Helper()
	resp, err := http.Get(s.URL + path)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, body
}

func (s *testServer) createProfile(req domain.ProfileCreate) (*http.Response, []byte) {
	s.t.Helper()
	raw, _ := json.Marshal(req)
	resp, err := http.Post(s.URL+"/api/profiles", "application/json", bytes.NewReader(raw))
	require.NoError(s.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, body
}

func TestAPIRoot(t *testing.T) {
	srv := newTestServer(t, false)
	resp, body := srv.get("/api/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Profile Generator API"}`, string(body))
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t, false)
	bio := "Night watch"

	resp, body := srv.createProfile(domain.ProfileCreate{Name: "Ava", Role: "Scout", Bio: &bio})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created domain.Profile
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Regexp(t, `^[0-9A-F]{12}$`, created.EncryptedID)

	resp, body = srv.get("/api/profiles/" + created.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Profile
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.EncryptedID, got.EncryptedID)
	assert.Equal(t, "Night watch", got.BioText())
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, body = srv.get("/api/profiles")
	var list []domain.Profile
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestProfileValidationAndNotFound(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := srv.createProfile(domain.ProfileCreate{Name: " ", Role: "Scout"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var env response.APIResponse
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "error", env.Status)

	resp, _ = srv.get("/api/profiles/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, body = srv.get("/api/profiles")
	assert.JSONEq(t, `[]`, string(body))
}

func upload(t *testing.T, srv *testServer, filename string, data []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestUploadAndServe(t *testing.T) {
	srv := newTestServer(t, false)
	data := pngBytes(t, 16, 16)

	resp, body := upload(t, srv, "me.png", data)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res domain.UploadResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/"))

	resp, served := srv.get(res.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, data, served)
}

func TestUploadRejectsNonImage(t *testing.T) {
	srv := newTestServer(t, false)
	resp, _ := upload(t, srv, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsOversize(t *testing.T) {
	srv := newTestServer(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "big.jpg")
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte{0xff}, 6<<20))
	require.NoError(t, mw.Close())

	// served in-process so the early reply cannot race the request body
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func postForm(t *testing.T, srv *testServer, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+"/", values)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestGeneratorFormCreatesCard(t *testing.T) {
	srv := newTestServer(t, false)

	resp, page := postForm(t, srv, url.Values{"name": {"Ava"}, "role": {"Scout"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Profile generated successfully!")
	assert.Contains(t, page, "@ava")
	assert.Regexp(t, `#[0-9A-F]{12}`, page)
	assert.Contains(t, page, "/export.gif")

	_, gallery := srv.get("/gallery")
	assert.Equal(t, 1, strings.Count(string(gallery), "data-profile-id="))
}

func TestGeneratorFormRejectsBlankName(t *testing.T) {
	srv := newTestServer(t, false)

	resp, page := postForm(t, srv, url.Values{"name": {"  "}, "role": {"Scout"}, "bio": {"kept"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, page, "Please enter your name")
	assert.Contains(t, page, "kept")

	_, body := srv.get("/api/profiles")
	assert.JSONEq(t, `[]`, string(body))
}

func TestGeneratorFormKeepsFieldsWhenPhotoTooLarge(t *testing.T) {
	srv := newTestServer(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="big.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte{0xff}, 6<<20))
	require.NoError(t, mw.WriteField("name", "Ava"))
	require.NoError(t, mw.WriteField("role", "Scout"))
	require.NoError(t, mw.WriteField("bio", "night watch"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	page := string(body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Contains(t, page, "Image size must be less than 5MB")
	assert.Contains(t, page, `value="Ava"`)
	assert.Contains(t, page, `value="Scout"`)
	assert.Contains(t, page, "night watch")

	_, list := srv.get("/api/profiles")
	assert.JSONEq(t, `[]`, string(list))
}

func TestGeneratorFormWithPhoto(t *testing.T) {
	srv := newTestServer(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="me.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write(pngBytes(t, 8, 8))
	require.NoError(t, mw.WriteField("name", "Ava"))
	require.NoError(t, mw.WriteField("role", "Scout"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Profile generated successfully!")

	_, list := srv.get("/api/profiles")
	var profiles []domain.Profile
	require.NoError(t, json.Unmarshal(list, &profiles))
	require.Len(t, profiles, 1)
	require.NotNil(t, profiles[0].PhotoURL)
	assert.Contains(t, *profiles[0].PhotoURL, "http://cards.local/uploads/")
}

func TestGalleryEmptyState(t *testing.T) {
	srv := newTestServer(t, false)
	resp, body := srv.get("/gallery")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "No profiles yet")
}

func TestCardDocumentAndExport(t *testing.T) {
	srv := newTestServer(t, true)
	_, body := srv.createProfile(domain.ProfileCreate{Name: "Ava", Role: "Scout"})
	var p domain.Profile
	require.NoError(t, json.Unmarshal(body, &p))

	resp, doc := srv.get("/cards/" + p.ID + "?layout=poster")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(doc), `id="card-export"`)
	assert.Contains(t, string(doc), "layout-poster")

	resp, data := srv.get("/cards/" + p.ID + "/export.gif")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="arcians-`+p.EncryptedID+`.gif"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(data, []byte("GIF89a")))

	resp, _ = srv.get("/cards/" + p.ID + "/export.png")
	assert.Equal(t, `attachment; filename="arcians-`+p.EncryptedID+`.png"`, resp.Header.Get("Content-Disposition"))

	resp, _ = srv.get("/cards/missing/export.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportUnavailableWithoutBrowser(t *testing.T) {
	srv := newTestServer(t, false)
	_, body := srv.createProfile(domain.ProfileCreate{Name: "Ava", Role: "Scout"})
	var p domain.Profile
	require.NoError(t, json.Unmarshal(body, &p))

	resp, _ := srv.get("/cards/" + p.ID + "/export.png")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, false)
	resp, _ := srv.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := srv.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}
