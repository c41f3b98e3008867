package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshbox/freshbox-backend/pkg/config"
)

type fakeBucket struct {
	mu      sync.Mutex
	uploads []string
	deletes []string
}

func (f *fakeBucket) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(path, "/b/images"):
			_, _ = io.WriteString(w, `{"name":"images"}`)
		case r.Method == http.MethodPost && strings.Contains(path, "/b/images/o"):
			body, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.uploads = append(f.uploads, string(body))
			f.mu.Unlock()
			_, _ = fmt.Fprintf(w, `{"name":"stored","bucket":"images","size":"%d"}`, len(body))
		case r.Method == http.MethodDelete && strings.Contains(path, "/b/images/o/"):
			if strings.Contains(path, "missing") {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
				return
			}
			f.mu.Lock()
			f.deletes = append(f.deletes, path)
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"forbidden"}}`)
		}
	})
}

func newTestClient(t *testing.T, bucket string) (*Client, *fakeBucket) {
	t.Helper()
	fake := &fakeBucket{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), config.GCSConfig{
		BucketName:    bucket,
		Endpoint:      srv.URL + "/storage/v1/",
		PublicBaseURL: "https://cdn.freshbox.test/",
	}, config.GCPConfig{}, nil)
	require.NoError(t, err)
	return client, fake
}

func TestNewClientRequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	assert.ErrorIs(t, err, errBucketRequired)
}

func TestNewClientFailsWhenBucketUnreachable(t *testing.T) {
	fake := &fakeBucket{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	_, err := NewClient(context.Background(), config.GCSConfig{
		BucketName: "other",
		Endpoint:   srv.URL + "/storage/v1/",
	}, config.GCPConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gcs health check failed")
}

func TestUploadWritesObject(t *testing.T) {
	client, fake := newTestClient(t, "images")

	obj, err := client.Upload(context.Background(), "products/abc/summer box.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "products/abc/summer box.png", obj.Key)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, "https://cdn.freshbox.test/images/products/abc/summer%20box.png", obj.URL)
	assert.Positive(t, obj.SizeBytes)

	require.Len(t, fake.uploads, 1)
	assert.Contains(t, fake.uploads[0], "png-bytes")
	assert.Contains(t, fake.uploads[0], "products/abc/summer box.png")
}

func TestUploadRequiresKey(t *testing.T) {
	client, _ := newTestClient(t, "images")
	_, err := client.Upload(context.Background(), "", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	client, fake := newTestClient(t, "images")

	require.NoError(t, client.Delete(context.Background(), "products/abc/photo.png"))
	require.NoError(t, client.Delete(context.Background(), "products/missing/photo.png"))
	assert.Len(t, fake.deletes, 1)
}

func TestNilClient(t *testing.T) {
	var client *Client
	assert.Equal(t, "", client.Bucket())
	assert.Error(t, client.Ping(context.Background()))
	_, err := client.Upload(context.Background(), "k", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Error(t, client.Delete(context.Background(), "k"))
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, clientOptions(config.GCSConfig{Endpoint: "http://localhost:4443/storage/v1/"}, config.GCPConfig{CredentialsJSON: "{}"}), 2)
	assert.Len(t, clientOptions(config.GCSConfig{}, config.GCPConfig{CredentialsJSON: "{}"}), 2)
	assert.Len(t, clientOptions(config.GCSConfig{}, config.GCPConfig{ApplicationCredentials: "/etc/sa.json"}), 2)
	assert.Len(t, clientOptions(config.GCSConfig{}, config.GCPConfig{}), 1)
}
