// Package storage signs time-limited URLs for lead videos kept in
// S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"activation/internal/config"
	"activation/internal/metrics"
)

const downloadDisposition = `attachment; filename="video.mp4"`

var (
	// ErrObjectNotFound is returned when the key has no backing object.
	ErrObjectNotFound = errors.New("object not found")
	// ErrNotConfigured is returned when bucket or credentials are missing.
	ErrNotConfigured = errors.New("object storage is not configured; set S3_BUCKET_NAME and AWS credentials")
)

// S3Storage issues presigned GET URLs after confirming the object exists.
type S3Storage struct {
	bucket   string
	client   *s3.Client
	presign  *s3.PresignClient
	disabled bool
}

// NewS3Storage builds the client from configuration. Missing bucket or
// credentials yield a disabled store rather than an error so the rest of the
// API still starts.
func NewS3Storage(ctx context.Context, cfg *config.StorageConfig) (*S3Storage, error) {
	store := &S3Storage{bucket: strings.TrimSpace(cfg.Bucket)}

	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretAccessKey)
	if store.bucket == "" || accessKey == "" || secretKey == "" {
		log.Println("[STORAGE] S3_BUCKET_NAME or credentials are not set; signed URLs are disabled")
		store.disabled = true
		return store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.ForcePathStyle
		}
	})
	store.presign = s3.NewPresignClient(store.client)
	return store, nil
}

// Enabled reports whether the store can sign URLs.
func (s *S3Storage) Enabled() bool {
	return !s.disabled
}

// Exists checks the object with a HEAD request.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	if s.disabled {
		return false, ErrNotConfigured
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head object %s: %w", key, err)
}

// SignURL returns a presigned GET URL valid for ttl. Download URLs ask the
// browser to save the file instead of playing it.
func (s *S3Storage) SignURL(ctx context.Context, key string, ttl time.Duration, forDownload bool) (string, error) {
	start := time.Now()
	url, err := s.signURL(ctx, key, ttl, forDownload)

	status := "success"
	switch {
	case errors.Is(err, ErrObjectNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.RecordSignedURL(status, time.Since(start))
	return url, err
}

func (s *S3Storage) signURL(ctx context.Context, key string, ttl time.Duration, forDownload bool) (string, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if forDownload {
		input.ResponseContentDisposition = aws.String(downloadDisposition)
	}

	req, err := s.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get object %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
