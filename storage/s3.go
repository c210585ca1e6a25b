package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Gateway stores objects in an S3-compatible bucket (Cloudflare R2 in
// production) reachable through a custom endpoint. Public URLs are served
// from R2_PUBLIC_DOMAIN, either a connected custom domain or the r2.dev URL
// enabled in the bucket settings.
type S3Gateway struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Gateway connects using R2_BUCKET, R2_ACCESS_KEY_ID,
// R2_SECRET_ACCESS_KEY, R2_ENDPOINT and R2_PUBLIC_DOMAIN.
func NewS3Gateway(ctx context.Context) (*S3Gateway, error) {
	bucket := os.Getenv("R2_BUCKET")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("R2_ENDPOINT") // https://<account-id>.r2.cloudflarestorage.com
	domain := strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/")

	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" || domain == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT, R2_PUBLIC_DOMAIN)")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &S3Gateway{
		client: client,
		bucket: bucket,
		prefix: fmt.Sprintf("%s/%s/", domain, bucket),
	}, nil
}

func (g *S3Gateway) Available() bool { return true }

func (g *S3Gateway) Upload(ctx context.Context, r io.Reader, contentType, filename, folder string) (string, error) {
	key := DeriveKey(folder, filename, time.Now())

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &OperationError{Op: "upload", Key: key, Err: err}
	}

	return g.prefix + key, nil
}

// Delete removes an object. S3 DeleteObject already succeeds for missing
// keys, so no extra not-found mapping is needed here.
func (g *S3Gateway) Delete(ctx context.Context, publicURL string) error {
	key, ok := keyFromURL(g.prefix, publicURL)
	if !ok {
		return nil
	}

	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &OperationError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
