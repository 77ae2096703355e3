package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const s3OpTimeout = 30 * time.Second

// S3Store persists blobs in an S3 bucket and returns s3://bucket/key
// storage paths.
type S3Store struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

func NewS3Store(ctx context.Context, bucket, region string, log zerolog.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		log:    log,
		now:    time.Now,
	}, nil
}

func (s *S3Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s3OpTimeout)
	defer cancel()

	key := StampName(s.now(), name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug().Str("key", key).Msg("blob saved to s3")
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) Remove(ctx context.Context, storagePath string) error {
	key := strings.TrimPrefix(storagePath, "s3://"+s.bucket+"/")
	if key == storagePath {
		return fmt.Errorf("not a path in bucket %s: %s", s.bucket, storagePath)
	}
	ctx, cancel := context.WithTimeout(ctx, s3OpTimeout)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
