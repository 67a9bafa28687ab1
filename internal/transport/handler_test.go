package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-image-gallery/internal/config"
	apperrors "go-image-gallery/internal/errors"
	"go-image-gallery/internal/repository"
	"go-image-gallery/pkg/models"
)

type fakeGalleryService struct {
	uploadResp  *models.UploadResponse
	uploadErr   error
	searchResp  *models.SearchResponse
	getResp     *models.ImageSummary
	getErr      error
	fileData    []byte
	fileErr     error
	text        string
	textErr     error
	tags        []repository.TagCount
	suggestions []string
}

func (f *fakeGalleryService) Upload(_ context.Context, _ string, _ []byte) (*models.UploadResponse, error) {
	return f.uploadResp, f.uploadErr
}

func (f *fakeGalleryService) Search(_ context.Context, _ string, page, perPage int) (*models.SearchResponse, error) {
	if f.searchResp != nil {
		return f.searchResp, nil
	}
	return &models.SearchResponse{Images: []models.ImageSummary{}, Page: page, PerPage: perPage}, nil
}

func (f *fakeGalleryService) GetImage(_ context.Context, _ uint) (*models.ImageSummary, error) {
	return f.getResp, f.getErr
}

func (f *fakeGalleryService) ImageFile(_ context.Context, _ uint) (string, []byte, error) {
	return "original.png", f.fileData, f.fileErr
}

func (f *fakeGalleryService) Thumbnail(_ context.Context, _ uint) ([]byte, error) {
	return f.fileData, f.fileErr
}

func (f *fakeGalleryService) ExtractedText(_ context.Context, _ uint) (string, error) {
	return f.text, f.textErr
}

func (f *fakeGalleryService) ListTags(_ context.Context) ([]repository.TagCount, error) {
	return f.tags, nil
}

func (f *fakeGalleryService) Suggest(_ context.Context, _ string) ([]string, error) {
	return f.suggestions, nil
}

func (f *fakeGalleryService) CorrectText(text string) string {
	return strings.ReplaceAll(text, "qiuck", "quick")
}

func newTestHandler(svc *fakeGalleryService) http.Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(svc, &config.Config{MaxRequestBodySize: 10 << 20})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	svc := &fakeGalleryService{uploadResp: &models.UploadResponse{
		ID:       1,
		Filename: "holiday.jpg",
		Tags:     []models.TagRef{{Name: "beach"}},
	}}
	h := newTestHandler(svc)

	body, contentType := multipartUpload(t, "holiday.jpg", []byte("fake-image"))
	w := doRequest(t, h, http.MethodPost, "/api/upload", body, contentType)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "holiday.jpg", resp.Filename)
	require.Len(t, resp.Tags, 1)
	assert.Equal(t, "beach", resp.Tags[0].Name)
}

func TestUploadEndpointNoFile(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})
	w := doRequest(t, h, http.MethodPost, "/api/upload", nil, "multipart/form-data; boundary=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadEndpointValidationError(t *testing.T) {
	svc := &fakeGalleryService{
		uploadErr: apperrors.NewValidationError("Unsupported file type", nil),
	}
	h := newTestHandler(svc)

	body, contentType := multipartUpload(t, "notes.txt", []byte("text"))
	w := doRequest(t, h, http.MethodPost, "/api/upload", body, contentType)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestSearchEndpoint(t *testing.T) {
	svc := &fakeGalleryService{searchResp: &models.SearchResponse{
		Images:  []models.ImageSummary{{ID: 1, Filename: "a.jpg"}},
		HasMore: true,
		Page:    1,
		PerPage: 12,
	}}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images?q=beach&page=1", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, "a.jpg", resp.Images[0].Filename)
}

func TestGetImageNotFound(t *testing.T) {
	svc := &fakeGalleryService{
		getErr: apperrors.NewNotFoundError("image 42 not found", nil),
	}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images/42", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetImageInvalidID(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})
	w := doRequest(t, h, http.MethodGet, "/api/images/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadEndpoint(t *testing.T) {
	svc := &fakeGalleryService{fileData: []byte("image-bytes")}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images/1/download", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="original.png"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "image-bytes", w.Body.String())
}

func TestDownloadEndpointNotFound(t *testing.T) {
	svc := &fakeGalleryService{
		fileErr: apperrors.NewNotFoundError("image 7 not found", nil),
	}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images/7/download", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestThumbnailEndpoint(t *testing.T) {
	svc := &fakeGalleryService{fileData: []byte("jpeg-bytes")}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images/1/thumbnail", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=86400", w.Header().Get("Cache-Control"))
}

func TestImageTextEndpoint(t *testing.T) {
	svc := &fakeGalleryService{text: "the quick brown fox"}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/images/1/text", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.TextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the quick brown fox", resp.Text)
}

func TestListTagsEndpoint(t *testing.T) {
	svc := &fakeGalleryService{tags: []repository.TagCount{
		{Name: "animal", Count: 3},
		{Name: "beach", Count: 1},
	}}
	h := newTestHandler(svc)

	w := doRequest(t, h, http.MethodGet, "/api/tags", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var tags []repository.TagCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "animal", tags[0].Name)
}

func TestSuggestionsEndpointEmptyIsArray(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	w := doRequest(t, h, http.MethodGet, "/api/suggestions?q=zzz", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()), "empty suggestions must serialize as [] not null")
}

func TestCorrectTextEndpoint(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	body := bytes.NewBufferString(`{"text": "qiuck fox"}`)
	w := doRequest(t, h, http.MethodPost, "/api/correct_text", body, "application/json")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.TextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "quick fox", resp.Text)
}

func TestCorrectTextEndpointMissingBody(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	body := bytes.NewBufferString(`{}`)
	w := doRequest(t, h, http.MethodPost, "/api/correct_text", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	w := doRequest(t, h, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "available", resp["status"])
}

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	w := doRequest(t, h, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestSPAFallbackServesIndex(t *testing.T) {
	h := newTestHandler(&fakeGalleryService{})

	w := doRequest(t, h, http.MethodGet, "/some/client/route", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}
