// internal/snapshot/s3.go
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps snapshots as objects under s3://<bucket>/<prefix>/<key>.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *S3Store) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.objectKey(key))
}

func (s *S3Store) Save(ctx context.Context, key string, records []model.Repository) error {
	data, err := Encode(records)
	if err != nil {
		return &custom_errors.StorageWriteError{Path: s.Location(key), Err: err}
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return &custom_errors.StorageWriteError{Path: s.Location(key), Err: err}
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context, key string) ([]model.Repository, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: s.Location(key), Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: s.Location(key), Err: err}
	}

	records, err := Decode(data)
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: s.Location(key), Err: err}
	}
	return records, nil
}
