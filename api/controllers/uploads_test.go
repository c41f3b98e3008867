package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/internal/media"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
)

type stubMediaService struct {
	uploaded []string
	deleted  string
	err      error
}

func (s *stubMediaService) UploadProductImage(_ context.Context, input media.UploadInput) (*media.ImageDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	s.uploaded = append(s.uploaded, input.FileName)
	key := "products/test/" + input.FileName
	return &media.ImageDTO{Key: key, URL: "https://cdn.freshbox.test/" + key, ContentType: "image/png", SizeBytes: int64(len(data))}, nil
}

func (s *stubMediaService) DeleteProductImage(_ context.Context, key string) error {
	s.deleted = key
	return s.err
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAdminImageUploadStoresEveryFile(t *testing.T) {
	svc := &stubMediaService{}
	req := multipartRequest(t, map[string]string{"a.png": "aaaa", "b.png": "bb"})

	rec := serve(AdminImageUpload(svc, 1<<20, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload struct {
		Images []media.ImageDTO `json:"images"`
	}
	decodeData(t, rec.Body, &payload)
	require.Len(t, payload.Images, 2)
	assert.ElementsMatch(t, []string{"a.png", "b.png"}, svc.uploaded)
}

func TestAdminImageUploadRejectsMissingAndExcessFiles(t *testing.T) {
	rec := serve(AdminImageUpload(&stubMediaService{}, 1<<20, nil), multipartRequest(t, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	files := map[string]string{}
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png"} {
		files[name] = "x"
	}
	svc := &stubMediaService{}
	rec = serve(AdminImageUpload(svc, 1<<20, nil), multipartRequest(t, files))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec.Body).Message, "at most 5 files")
	assert.Empty(t, svc.uploaded)
}

func TestAdminImageUploadRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads/images", bytes.NewBufferString(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(AdminImageUpload(&stubMediaService{}, 1<<20, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminImageUploadSurfacesValidation(t *testing.T) {
	svc := &stubMediaService{err: pkgerrors.New(pkgerrors.CodeValidation, "file must be an image")}
	rec := serve(AdminImageUpload(svc, 1<<20, nil), multipartRequest(t, map[string]string{"menu.pdf": "%PDF"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file must be an image", decodeError(t, rec.Body).Message)
}

func TestAdminImageUploadUnavailable(t *testing.T) {
	rec := serve(AdminImageUpload(nil, 1<<20, nil), multipartRequest(t, map[string]string{"a.png": "a"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminImageDelete(t *testing.T) {
	svc := &stubMediaService{}
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/uploads/images?key=products/abc/box.png", nil)
	rec := serve(AdminImageDelete(svc, nil), req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "products/abc/box.png", svc.deleted)
}
