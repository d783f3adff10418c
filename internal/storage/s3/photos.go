// Package s3 stores issue photos as opaque objects. Uploads go through the
// API (multipart form), downloads are served to clients as presigned GET
// URLs so the bucket never needs to be public.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/civiport-dev/civiport/internal/config"
)

const presignTTL = 15 * time.Minute

type PhotoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func New(ctx context.Context, cfg *config.Config) (*PhotoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Public.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Private.S3AccessKey,
			cfg.Private.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Private.S3Endpoint != "" {
			// MinIO or another S3-compatible endpoint
			o.BaseEndpoint = aws.String(cfg.Private.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Public.S3Bucket,
	}, nil
}

// randomKey partitions objects by date so buckets stay browsable.
func randomKey() string {
	d := time.Now()
	return fmt.Sprintf("issues/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Upload stores a photo and returns its object key.
func (p *PhotoStore) Upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key := randomKey()
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return key, nil
}

// PresignGet returns a time-limited URL for fetching a stored photo.
func (p *PhotoStore) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign photo url: %w", err)
	}
	return req.URL, nil
}

// Delete removes a stored photo. Used when an issue is deleted by an admin.
func (p *PhotoStore) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}
