// Package gcs stores product images in a Google Cloud Storage bucket through
// the JSON API.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

const (
	pingTimeout       = 5 * time.Second
	imageCacheControl = "public, max-age=31536000, immutable"
)

var errBucketRequired = errors.New("gcs bucket name is required")

// Client uploads and removes objects in a single bucket.
type Client struct {
	objects       *storage.ObjectsService
	buckets       *storage.BucketsService
	bucket        string
	publicBaseURL string
}

// Object describes an object written by Upload.
type Object struct {
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
}

// NewClient builds a storage client and verifies the bucket is reachable.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errBucketRequired
	}

	svc, err := storage.NewService(ctx, clientOptions(cfg, gcp)...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	client := &Client{
		objects:       svc.Objects,
		buckets:       svc.Buckets,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	if client.publicBaseURL == "" {
		client.publicBaseURL = "https://storage.googleapis.com"
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func clientOptions(cfg config.GCSConfig, gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		// emulators accept unauthenticated requests
		return append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return append(opts, option.WithScopes(storage.DevstorageReadWriteScope))
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Ping fetches the bucket metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.buckets == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.buckets.Get(c.bucket).Context(ctx).Do(); err != nil {
		return fmt.Errorf("get bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Upload streams body into the bucket under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) (*Object, error) {
	if c == nil || c.objects == nil {
		return nil, errors.New("gcs client not initialized")
	}
	if key == "" {
		return nil, errors.New("object key is required")
	}

	obj, err := c.objects.Insert(c.bucket, &storage.Object{
		Name:         key,
		ContentType:  contentType,
		CacheControl: imageCacheControl,
	}).Media(body, googleapi.ContentType(contentType)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert object %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         c.PublicURL(key),
		ContentType: contentType,
		SizeBytes:   int64(obj.Size),
	}, nil
}

// Delete removes key. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.objects == nil {
		return errors.New("gcs client not initialized")
	}
	err := c.objects.Delete(c.bucket, key).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL is the address browsers load key from.
func (c *Client) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return c.publicBaseURL + "/" + url.PathEscape(c.bucket) + "/" + strings.Join(segments, "/")
}
