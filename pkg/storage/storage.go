// Package storage publishes generated media and returns a URL for it.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores a blob and returns a URL that serves it
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Config holds S3 configuration
type Config struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
	// PublicBaseURL overrides the virtual-hosted bucket URL, e.g. a CDN origin
	PublicBaseURL string
	// Endpoint points the client at an S3-compatible server. It implies path-style
	// addressing and checksums only where the operation requires them.
	Endpoint string
}

// S3Store uploads to an S3 bucket
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store creates an S3 uploader. Without static keys the default AWS
// credential chain is used.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	switch {
	case base != "":
	case cfg.Endpoint != "":
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.AWSRegion)
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket, baseURL: base}, nil
}

// Put uploads data under key with a public-read friendly content type
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// InlineStore encodes blobs as data URIs. It is used when no bucket is configured.
type InlineStore struct{}

// Put returns data as a base64 data URI
func (InlineStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return DataURI(contentType, data), nil
}

// DataURI renders data as data:<type>;base64,<payload>
func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// New returns an S3Store when a bucket is configured and an InlineStore otherwise
func New(ctx context.Context, cfg Config) (Uploader, error) {
	if cfg.S3Bucket == "" {
		return InlineStore{}, nil
	}
	st, err := newS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return st, nil
}

var newS3Store = NewS3Store
