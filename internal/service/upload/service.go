package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sharetube/watchtogether/internal/repository/upload"
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("file is empty")
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type iObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (*upload.ObjectInfo, error)
	Get(ctx context.Context, name string) ([]byte, *upload.ObjectInfo, error)
}

type Config struct {
	MaxSize   int64
	PublicURL string
}

type service struct {
	store iObjectStore
	cfg   Config
}

func NewService(store iObjectStore, cfg Config) *service {
	return &service{store: store, cfg: cfg}
}

type UploadResponse struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        uint64 `json:"size"`
	ContentType string `json:"contentType"`
}

// Upload stores an image and returns the durable url it is served from.
func (s service) Upload(ctx context.Context, data []byte) (UploadResponse, error) {
	if len(data) == 0 {
		return UploadResponse{}, ErrEmpty
	}
	if s.cfg.MaxSize > 0 && int64(len(data)) > s.cfg.MaxSize {
		return UploadResponse{}, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return UploadResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := uuid.NewString() + ext
	info, err := s.store.Put(ctx, name, data, contentType)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("failed to store upload: %w", err)
	}

	return UploadResponse{
		Name:        info.Name,
		URL:         s.URL(info.Name),
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

func (s service) URL(name string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/api/v1/uploads/" + name
}

func (s service) Get(ctx context.Context, name string) ([]byte, *upload.ObjectInfo, error) {
	return s.store.Get(ctx, name)
}
