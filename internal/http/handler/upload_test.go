package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sewasew/media-service/internal/auth"
	"github.com/sewasew/media-service/internal/media"
	"github.com/sewasew/media-service/internal/metrics"
	"github.com/sewasew/media-service/internal/storage/local"
)

func setupRouter(t *testing.T, authenticated bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := media.NewService(local.New(t.TempDir()), "http://localhost:3001", metrics.New(prometheus.NewRegistry()), logger)
	require.NoError(t, svc.Provision(context.Background()))

	h := NewUploadHandler(svc, logger)

	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			auth.SetIdentity(c, &auth.Identity{
				UserID:      "u1",
				Permissions: []string{auth.PermissionUpload},
			})
		})
	}
	r.POST("/uploads/avatar", h.UploadAvatar)
	r.POST("/uploads/strategy", h.UploadStrategyImage)
	r.POST("/uploads/resume", h.UploadResume)
	r.DELETE("/uploads", h.DeleteMedia)

	return r
}

func multipartBody(t *testing.T, field, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &b, w.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, path, field, fileName, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, ct := multipartBody(t, field, fileName, contentType, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func smallPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadAvatarReturnsImageURL(t *testing.T) {
	r := setupRouter(t, true)

	rr := doUpload(t, r, "/uploads/avatar", "image", "me.png", "image/png", smallPNG(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Regexp(t, `^http://localhost:3001/uploads/avatars/u1/avatar-\d+\.png$`, resp["imageUrl"])
}

func TestUploadStrategyImage(t *testing.T) {
	r := setupRouter(t, true)

	rr := doUpload(t, r, "/uploads/strategy", "image", "plan.png", "image/png", smallPNG(t))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Regexp(t, `^http://localhost:3001/uploads/strategy/u1/strategy-\d+\.png$`, resp["imageUrl"])
}

func TestUploadWithoutFile(t *testing.T) {
	r := setupRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/uploads/avatar", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file provided")
}

func TestUploadUnsupportedType(t *testing.T) {
	r := setupRouter(t, true)

	rr := doUpload(t, r, "/uploads/strategy", "image", "archive.zip", "application/zip", []byte("zipzip"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unsupported type")
}

func TestUploadOversizeResume(t *testing.T) {
	r := setupRouter(t, true)

	content := bytes.Repeat([]byte("a"), (5<<20)+1)
	rr := doUpload(t, r, "/uploads/resume", "file", "cv.pdf", "application/pdf", content)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "file too large")
}

func TestUploadResumeRequiresPDF(t *testing.T) {
	r := setupRouter(t, true)

	rr := doUpload(t, r, "/uploads/resume", "file", "cv.png", "image/png", smallPNG(t))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "PDF")
}

func TestUploadRequiresIdentity(t *testing.T) {
	r := setupRouter(t, false)

	rr := doUpload(t, r, "/uploads/avatar", "image", "me.png", "image/png", smallPNG(t))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDeleteAlwaysNoContent(t *testing.T) {
	r := setupRouter(t, true)

	for _, path := range []string{"", "/uploads/avatars/u1/avatar-123.png"} {
		req := httptest.NewRequest(http.MethodDelete, "/uploads?path="+path, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}
}
