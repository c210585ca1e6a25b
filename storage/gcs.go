package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSGateway stores objects in a Google Cloud Storage bucket and serves them
// through the public storage.googleapis.com endpoint.
type GCSGateway struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSGateway connects using GCS_BUCKET and CREDENTIALS_FILE_LOCATION
// (a service account key file relative to the working directory).
func NewGCSGateway(ctx context.Context) (*GCSGateway, error) {
	bucket := os.Getenv("GCS_BUCKET")
	credentialsPath := os.Getenv("CREDENTIALS_FILE_LOCATION")
	if bucket == "" || credentialsPath == "" {
		return nil, fmt.Errorf("missing GCS env vars (GCS_BUCKET, CREDENTIALS_FILE_LOCATION)")
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	client, err := gcs.NewClient(ctx, option.WithAuthCredentialsFile(option.ServiceAccount, filepath.Join(wd, credentialsPath)))
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	return &GCSGateway{
		client: client,
		bucket: bucket,
		prefix: fmt.Sprintf("https://storage.googleapis.com/%s/", bucket),
	}, nil
}

func (g *GCSGateway) Available() bool { return true }

func (g *GCSGateway) Upload(ctx context.Context, r io.Reader, contentType, filename, folder string) (string, error) {
	key := DeriveKey(folder, filename, time.Now())

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", &OperationError{Op: "upload", Key: key, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &OperationError{Op: "upload", Key: key, Err: err}
	}

	return g.prefix + key, nil
}

func (g *GCSGateway) Delete(ctx context.Context, publicURL string) error {
	key, ok := keyFromURL(g.prefix, publicURL)
	if !ok {
		return nil
	}

	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !isGCSNotFound(err) {
		return &OperationError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// isGCSNotFound reports whether err means the object is already gone, which
// Delete treats as success.
func isGCSNotFound(err error) bool {
	return errors.Is(err, gcs.ErrObjectNotExist)
}
