package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PhotoService stores rating photos in an S3 bucket. URIs are opaque to
// callers and round-trip through Download.
type PhotoService struct {
	s3Client *s3.Client
	s3Bucket string
}

// NewPhotoService creates a new photo service. A non-empty endpoint
// switches the client to an S3-compatible storage provider with
// path-style addressing.
func NewPhotoService(awsRegion, s3Bucket, accessKey, secretKey, endpoint string) (*PhotoService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsRegion),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		s3Client: s3Client,
		s3Bucket: s3Bucket,
	}, nil
}

// Upload stores the given bytes under the category prefix and returns
// the object's URI.
func (s *PhotoService) Upload(ctx context.Context, data []byte, category string) (string, error) {
	key := fmt.Sprintf("%s/%s.jpg", category, uuid.New().String())

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.s3Bucket, key), nil
}

// Download fetches the object behind a URI previously returned by
// Upload.
func (s *PhotoService) Download(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo body: %w", err)
	}
	return data, nil
}

// parseS3URI splits an s3://bucket/key URI into its parts.
func parseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("unsupported photo URI scheme: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed photo URI: %q", uri)
	}
	return bucket, key, nil
}
