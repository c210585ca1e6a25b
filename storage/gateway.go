// Package storage puts product images into an object bucket and serves the
// write path with public URLs. The backend (GCS or any S3-compatible store)
// is picked from the environment at startup; when neither is configured the
// package degrades to an explicit Unavailable gateway instead of a silent
// dummy, so callers can refuse image work up front.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnavailable is returned by every call on a gateway that was never
// configured.
var ErrUnavailable = errors.New("object storage is not configured")

// Gateway is the object-storage capability used by the product write path.
type Gateway interface {
	// Available reports whether the gateway was configured at startup.
	// Callers must check it before attempting image I/O so that requests
	// without image work keep succeeding when no bucket is configured.
	Available() bool

	// Upload stores the contents of r under a key derived from folder and
	// the original filename, and returns the public URL of the new object.
	Upload(ctx context.Context, r io.Reader, contentType, filename, folder string) (string, error)

	// Delete removes the object behind a previously returned public URL.
	// URLs outside this gateway's bucket and objects that are already gone
	// both count as success.
	Delete(ctx context.Context, publicURL string) error
}

// OperationError reports a failed remote storage call.
type OperationError struct {
	Op  string
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NewFromEnv selects the configured backend: GCS when GCS_BUCKET is set,
// an S3-compatible endpoint when R2_BUCKET is set, otherwise Unavailable.
// A backend that is named but fails to initialize also degrades to
// Unavailable with a warning rather than taking the process down.
func NewFromEnv(ctx context.Context) Gateway {
	if os.Getenv("GCS_BUCKET") != "" {
		g, err := NewGCSGateway(ctx)
		if err != nil {
			zap.S().Warnw("gcs gateway unavailable", "error", err)
			return Unavailable{}
		}
		return g
	}
	if os.Getenv("R2_BUCKET") != "" {
		g, err := NewS3Gateway(ctx)
		if err != nil {
			zap.S().Warnw("s3 gateway unavailable", "error", err)
			return Unavailable{}
		}
		return g
	}
	return Unavailable{}
}

// Unavailable is the not-configured gateway. It rejects image I/O with
// ErrUnavailable instead of pretending to store anything.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) Upload(context.Context, io.Reader, string, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Delete(context.Context, string) error { return ErrUnavailable }

var whitespaceRuns = regexp.MustCompile(`\s+`)

// SanitizeFilename collapses whitespace runs into single underscores.
// Case is preserved.
func SanitizeFilename(name string) string {
	return whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
}

// DeriveKey builds the object key for an upload: the destination folder, the
// sanitized base name, a dash, the upload time in unix milliseconds, and the
// original extension. The timestamp keeps repeated uploads of the same
// filename from colliding.
func DeriveKey(folder, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" {
		base = "file"
	}
	return folder + SanitizeFilename(base) + "-" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// keyFromURL strips the gateway's public prefix from a URL. ok is false when
// the URL does not belong to this gateway's bucket.
func keyFromURL(prefix, publicURL string) (string, bool) {
	key, found := strings.CutPrefix(publicURL, prefix)
	if !found || key == "" {
		return "", false
	}
	return key, true
}
