package controllers

import (
	"fmt"
	"net/http"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/internal/media"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

const (
	uploadFormField = "file"
	// multipart parts above this size spill to temp files
	uploadMemoryBytes = 8 << 20
	uploadFormSlack   = 1 << 20
)

// AdminImageUpload stores up to five images sent as multipart "file" parts.
func AdminImageUpload(svc media.Service, maxFileBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image uploads unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes*media.MaxImagesPerUpload+uploadFormSlack)
		if err := r.ParseMultipartForm(uploadMemoryBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		files := r.MultipartForm.File[uploadFormField]
		if len(files) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required"))
			return
		}
		if len(files) > media.MaxImagesPerUpload {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d files per upload", media.MaxImagesPerUpload)))
			return
		}

		images := make([]*media.ImageDTO, 0, len(files))
		for _, header := range files {
			file, err := header.Open()
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload"))
				return
			}
			dto, err := svc.UploadProductImage(ctx, media.UploadInput{
				FileName:  header.Filename,
				SizeBytes: header.Size,
				Body:      file,
			})
			_ = file.Close()
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			images = append(images, dto)
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "count", len(images)), "product images uploaded")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"images": images})
	}
}

// AdminImageDelete removes an uploaded image by its key query parameter.
func AdminImageDelete(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image uploads unavailable"))
			return
		}
		if err := svc.DeleteProductImage(ctx, r.URL.Query().Get("key")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
