// Package media stores product images uploaded from the admin dashboard.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/storage/gcs"
)

const (
	productImagePrefix    = "products/"
	defaultMaxUploadBytes = 32 << 20

	// MaxImagesPerUpload bounds the files accepted by one upload request.
	MaxImagesPerUpload = 5
)

type objectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (*gcs.Object, error)
	Delete(ctx context.Context, key string) error
}

// Service exposes product image storage.
type Service interface {
	UploadProductImage(ctx context.Context, input UploadInput) (*ImageDTO, error)
	DeleteProductImage(ctx context.Context, key string) error
}

// UploadInput is a single file taken from a multipart request.
type UploadInput struct {
	FileName  string
	SizeBytes int64
	Body      io.Reader
}

// ImageDTO is returned to the dashboard; URL goes into the product's images.
type ImageDTO struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type service struct {
	store    objectStore
	maxBytes int64
}

// NewService constructs a media service writing through store.
func NewService(store objectStore, maxBytes int64) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &service{store: store, maxBytes: maxBytes}, nil
}

func (s *service) UploadProductImage(ctx context.Context, input UploadInput) (*ImageDTO, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if input.Body == nil || input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file must be at most %d MB", s.maxBytes>>20))
	}

	detected, body, err := sniffImage(input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if !isAllowedImage(detected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file must be a "+allowedImageDescription()+" image").
			WithDetails(map[string]any{"detected": detected.String()})
	}

	key := buildImageKey(uuid.New(), fileName, detected.Extension())
	obj, err := s.store.Upload(ctx, key, detected.String(), io.LimitReader(body, s.maxBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image")
	}

	size := obj.SizeBytes
	if size <= 0 {
		size = input.SizeBytes
	}
	return &ImageDTO{
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		SizeBytes:   size,
	}, nil
}

func (s *service) DeleteProductImage(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, productImagePrefix) || strings.Contains(key, "..") || path.Clean(key) != key {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid image key")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

func buildImageKey(id uuid.UUID, fileName, ext string) string {
	base := sanitizeFileName(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if base == "" {
		base = "image"
	}
	return productImagePrefix + id.String() + "/" + strings.ToLower(base) + ext
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
