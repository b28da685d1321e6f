// Package blob stores re-hosted thumbnails in an S3-compatible bucket
// (MinIO in development). Keys are deterministic per record, so uploads are
// idempotent by construction.
package blob

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the S3 connection settings.
type Config struct {
	RootUser     string
	RootPassword string
	Region       string
	BaseEndpoint string
	Bucket       string

	// PublicBaseURL is the externally reachable prefix thumbnails are served
	// from. Defaults to BaseEndpoint when empty.
	PublicBaseURL string
}

type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,     // MINIO_ROOT_USER
			cfg.RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	public := cfg.PublicBaseURL
	if public == "" {
		public = cfg.BaseEndpoint
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(public, "/"),
	}, nil
}

// Upload puts body at key. PutObject overwrites an existing object, which is
// exactly the upsert behavior enrichment re-runs need.
func (s *S3Store) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}

// PublicURL returns the public address of an uploaded object.
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + s.bucket + "/" + key
}
