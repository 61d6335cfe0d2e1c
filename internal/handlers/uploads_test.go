package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUploadRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	handler := NewUploadHandler(dir)
	r := gin.New()
	r.POST("/api/upload", handler.Upload)
	r.GET("/api/uploads/:filename", handler.Serve)
	return r, dir
}

func multipartBody(t *testing.T, field string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadStoresFilesAndReturnsURLs(t *testing.T) {
	router, dir := setupUploadRouter(t)

	body, contentType := multipartBody(t, "files", "a.png", "b.txt")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		URLs []string `json:"urls"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.URLs, 2)
	for _, url := range resp.URLs {
		require.True(t, strings.HasPrefix(url, "/api/uploads/"))
		_, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, "/api/uploads/")))
		assert.NoError(t, err)
	}
	assert.True(t, strings.HasSuffix(resp.URLs[0], ".png"))
	assert.True(t, strings.HasSuffix(resp.URLs[1], ".txt"))
}

func TestUploadAcceptsSingleFileField(t *testing.T) {
	router, _ := setupUploadRouter(t)

	body, contentType := multipartBody(t, "file", "a.png")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	router, _ := setupUploadRouter(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsExtensionlessFile(t *testing.T) {
	router, _ := setupUploadRouter(t)

	body, contentType := multipartBody(t, "files", "noext")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeRejectsPathTraversal(t *testing.T) {
	router, _ := setupUploadRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/uploads/..%2Fsecret.txt", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
