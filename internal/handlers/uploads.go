package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// UploadHandler stores message attachments and serves them back. The returned
// URLs are opaque to the rest of the system.
type UploadHandler struct {
	dir string
}

// NewUploadHandler builds an UploadHandler writing into dir.
func NewUploadHandler(dir string) *UploadHandler {
	return &UploadHandler{dir: dir}
}

// Upload accepts one or more multipart "files" parts and returns their URLs.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	urls := make([]string, 0, len(files))
	for i, file := range files {
		ext := filepath.Ext(file.Filename)
		if ext == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must have an extension"})
			return
		}

		filename := strconv.FormatInt(time.Now().UnixNano(), 10) + "_" + strconv.Itoa(i) + ext
		if err := c.SaveUploadedFile(file, filepath.Join(h.dir, filename)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save file"})
			return
		}
		urls = append(urls, "/api/uploads/"+filename)
	}

	c.JSON(http.StatusOK, gin.H{"urls": urls})
}

// Serve returns a previously uploaded file. Only bare filenames are accepted
// to keep path traversal out.
func (h *UploadHandler) Serve(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || filepath.Base(filename) != filename {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}
	c.File(filepath.Join(h.dir, filename))
}
