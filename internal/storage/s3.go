// Package storage resolves offer attachments stored in S3-compatible
// object storage into short-lived presigned URLs. Uploads happen out of
// band; the API only ever hands out read links.
package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dkravtsov/offerhub/internal/config"
)

// Client presigns GET requests against the configured bucket. A nil
// *Client is valid and means object storage is not configured; URL
// resolution then degrades to an empty string.
type Client struct {
	presign *s3.PresignClient
	bucket  string
}

// New builds a storage client from config. It returns nil (no error)
// when the credentials are absent so the rest of the service can run
// without object storage.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if cfg.S3KeyID == "" || cfg.S3Bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3KeyID, cfg.S3Secret, ""),
		),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Client{presign: s3.NewPresignClient(client), bucket: cfg.S3Bucket}, nil
}

// PresignGet returns a time-limited download URL for an object key, or
// an empty string when storage is not configured.
func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	if c == nil || key == "" {
		return "", nil
	}
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
