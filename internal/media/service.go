package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sewasew/media-service/internal/domain"
	"github.com/sewasew/media-service/internal/metrics"
	"github.com/sewasew/media-service/internal/storage"
)

const uploadsPrefix = "/uploads/"

// Service turns in-memory uploaded files into durable, addressable media
// under a category/user namespace. It holds no per-request state; the only
// durable state is whatever the backend stores.
type Service struct {
	backend storage.Backend
	baseURL string
	logger  *slog.Logger
	metrics *metrics.Metrics
	seq     atomic.Uint64
}

func NewService(backend storage.Backend, publicBaseURL string, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
		metrics: m,
	}
}

// Provision prepares the backend for every known category. Must complete
// before the service accepts uploads; failure is fatal at startup.
func (s *Service) Provision(ctx context.Context) error {
	prefixes := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		prefixes = append(prefixes, c.String())
	}
	if err := s.backend.Provision(ctx, prefixes); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Upload validates the file against the category policy, optionally
// normalizes it through the image optimizer, and persists it under
// "{category}/{userId}/{prefix}-{epochMillis}{seq}{ext}". The returned value
// is the relative stored path ("/uploads/..."), the only artifact callers
// persist. Validation runs strictly before any backend I/O.
func (s *Service) Upload(ctx context.Context, file *domain.UploadedFile, userID string, category domain.Category, prefix string, optimize bool) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	if err := domain.Validate(file, category); err != nil {
		s.countUpload(category, "rejected")
		return "", err
	}

	data := file.Bytes
	contentType := file.ContentType
	if optimize {
		optimized, err := optimizeImage(data)
		if err != nil {
			s.logger.Warn("image optimization failed", "category", category.String(), "error", err)
			s.countUpload(category, "rejected")
			return "", fmt.Errorf("%w: failed to process image", domain.ErrInvalidInput)
		}
		data = optimized
		contentType = "image/jpeg"
	}

	fileName := s.fileName(prefix, file.OriginalName)
	key := path.Join(category.String(), userID, fileName)

	if err := s.backend.Save(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.logger.Error("upload failed", "key", key, "error", err)
		s.countUpload(category, "error")
		return "", fmt.Errorf("%w: failed to upload %s", domain.ErrStorageUnavailable, prefix)
	}

	s.countUpload(category, "ok")
	if s.metrics != nil {
		s.metrics.UploadBytes.WithLabelValues(category.String()).Add(float64(len(data)))
	}
	s.logger.Info("file uploaded", "key", key, "size", len(data), "optimized", optimize)

	return uploadsPrefix + key, nil
}

// Delete removes the stored file referenced by storedPath. Best-effort by
// contract: empty paths and missing files are fine, and I/O errors are logged
// and swallowed so a failed cleanup never fails the caller's operation.
func (s *Service) Delete(ctx context.Context, storedPath string) {
	if storedPath == "" {
		return
	}

	key := strings.TrimPrefix(storedPath, uploadsPrefix)
	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.Warn("delete failed", "path", storedPath, "error", err)
		s.countDelete("error")
		return
	}
	s.countDelete("ok")
}

// MediaURL resolves a stored path to its public URL. Absolute URLs stored
// verbatim pass through unchanged; the empty path maps to "". Media URLs
// never carry the API prefix: /uploads is served as static content outside
// the versioned API namespace.
func (s *Service) MediaURL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	if strings.HasPrefix(storedPath, "http://") || strings.HasPrefix(storedPath, "https://") {
		return storedPath
	}
	return s.baseURL + storedPath
}

// fileName builds "{prefix}-{epochMillis}{seq}{loweredExt}". The three-digit
// sequence keeps names unique when uploads land in the same millisecond while
// staying numeric and sortable.
func (s *Service) fileName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	seq := s.seq.Add(1) % 1000
	return fmt.Sprintf("%s-%d%03d%s", prefix, time.Now().UnixMilli(), seq, ext)
}

func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id not provided", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(userID, "/\\") || strings.Contains(userID, "..") {
		return fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}
	return nil
}

func (s *Service) countUpload(category domain.Category, result string) {
	if s.metrics != nil {
		s.metrics.Uploads.WithLabelValues(category.String(), result).Inc()
	}
}

func (s *Service) countDelete(result string) {
	if s.metrics != nil {
		s.metrics.Deletes.WithLabelValues(result).Inc()
	}
}
