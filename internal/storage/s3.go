package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// keyPrefix namespaces certificate artifacts inside the bucket.
const keyPrefix = "certificates/"

// S3Store is an S3-backed ArtifactStore.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store creates an S3 artifact store. profile optionally selects a
// shared AWS config profile; credentials otherwise come from the default
// chain.
func NewS3Store(ctx context.Context, bucket, region, profile string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// Ready reports ErrNotConfigured when the bucket or region is missing.
func (s *S3Store) Ready() error {
	if s == nil || s.client == nil || s.bucket == "" || s.region == "" {
		return ErrNotConfigured
	}
	return nil
}

// Upload puts a rendered PDF into the bucket and returns its public URL
// and object key.
func (s *S3Store) Upload(ctx context.Context, data []byte, name string) (*StoredObject, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	key := keyPrefix + name
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return nil, fmt.Errorf("putting object to S3: %w", err)
	}

	return &StoredObject{URL: s.objectURL(key), Key: key}, nil
}

// Delete removes an artifact. S3 deletes are idempotent, so a missing
// object is treated as success.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.Ready(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object from S3: %w", err)
	}
	return nil
}

func (s *S3Store) objectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
