package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"profile-service/internal/domain"
	"profile-service/pkg/id"
	imgutil "profile-service/pkg/image"
	"profile-service/pkg/xerrors"

	"go.uber.org/zap"
)

const (
	UploadURLPrefix = "/uploads/"
	jpegQuality     = 85
)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type UploadService struct {
	dir      string
	maxBytes int64
	maxSide  int
	logger   *zap.Logger
}

func NewUploadService(dir string, maxBytes int64, maxSide int, logger *zap.Logger) (*UploadService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadService{dir: dir, maxBytes: maxBytes, maxSide: maxSide, logger: logger}, nil
}

func (s *UploadService) Dir() string { return s.dir }

// Save stores an uploaded photo under a fresh name and returns its path
// relative to the store origin.
func (s *UploadService) Save(ctx context.Context, filename string, r io.Reader) (*domain.StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, xerrors.ErrPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, xerrors.ErrMissingFile
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, xerrors.ErrNotAnImage
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = extByType[contentType]
	}

	resized := false
	if norm, err := imgutil.Normalize(data, s.maxSide, jpegQuality); err != nil {
		// undecodable but sniffed as an image (ico, svg-ish); keep the bytes
		s.logger.Warn("photo normalize skipped", zap.String("content_type", contentType), zap.Error(err))
	} else if norm.Resized {
		data = norm.Data
		contentType = "image/jpeg"
		ext = ".jpg"
		resized = true
	}

	name := id.UploadName(strings.TrimPrefix(ext, "."))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	s.logger.Info("photo stored",
		zap.String("name", name),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
		zap.Bool("resized", resized))

	return &domain.StoredFile{
		Name:        name,
		Path:        path,
		URL:         UploadURLPrefix + name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Resized:     resized,
	}, nil
}
