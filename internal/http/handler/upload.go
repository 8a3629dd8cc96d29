package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sewasew/media-service/internal/auth"
	"github.com/sewasew/media-service/internal/domain"
	"github.com/sewasew/media-service/internal/media"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadHandler exposes one endpoint per upload category. All endpoints share
// the same flow; only category, prefix, form field and optimization differ.
type UploadHandler struct {
	media  *media.Service
	logger *slog.Logger
}

func NewUploadHandler(svc *media.Service, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		media:  svc,
		logger: logger,
	}
}

func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	h.handle(c, domain.CategoryAvatar, "avatar", "image", true, "imageUrl")
}

func (h *UploadHandler) UploadStrategyImage(c *gin.Context) {
	h.handle(c, domain.CategoryStrategy, "strategy", "image", false, "imageUrl")
}

func (h *UploadHandler) UploadMissionaryImage(c *gin.Context) {
	h.handle(c, domain.CategoryMissionary, "missionary", "image", false, "imageUrl")
}

func (h *UploadHandler) UploadProjectImage(c *gin.Context) {
	h.handle(c, domain.CategoryProjects, "projects", "image", false, "imageUrl")
}

func (h *UploadHandler) UploadResume(c *gin.Context) {
	h.handle(c, domain.CategoryResume, "resume", "file", false, "fileUrl")
}

func (h *UploadHandler) UploadChatAttachment(c *gin.Context) {
	h.handle(c, domain.CategoryChat, "chat", "file", false, "fileUrl")
}

// DeleteMedia removes a stored file by its stored path. Deletion is
// fire-and-forget by contract, so the response is 204 regardless of whether
// the file existed or the removal succeeded.
func (h *UploadHandler) DeleteMedia(c *gin.Context) {
	h.media.Delete(c.Request.Context(), c.Query("path"))
	c.Status(http.StatusNoContent)
}

func (h *UploadHandler) handle(c *gin.Context, category domain.Category, prefix, field string, optimize bool, responseKey string) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file provided"})
		return
	}

	src, err := fh.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error("failed to read uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process file"})
		return
	}

	file := &domain.UploadedFile{
		Bytes:        data,
		ContentType:  contentType(fh.Header.Get("Content-Type"), fh.Filename),
		OriginalName: fh.Filename,
		Size:         int64(len(data)),
	}

	storedPath, err := h.media.Upload(c.Request.Context(), file, identity.UserID, category, prefix, optimize)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: reason(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{responseKey: h.media.MediaURL(storedPath)})
}

// contentType falls back to an extension-based guess when the part carries no
// Content-Type header.
func contentType(declared, filename string) string {
	if declared != "" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".ogg":
		return "video/ogg"
	default:
		return "application/octet-stream"
	}
}

// reason strips the sentinel prefix so clients see the specific policy
// violation without internal error chaining.
func reason(err error) string {
	msg := err.Error()
	if cut, found := strings.CutPrefix(msg, domain.ErrInvalidInput.Error()+": "); found {
		return cut
	}
	return msg
}
