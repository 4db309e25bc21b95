// internal/snapshot/factory.go
package snapshot

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options selects and configures a Store backend.
type Options struct {
	Backend string // "filesystem" (default), "memory" or "s3"
	Dir     string // filesystem root

	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string // optional, e.g. a MinIO URL; enables path-style addressing
	S3AccessKeyID     string // optional static credentials
	S3SecretAccessKey string
}

// NewStoreFromOptions creates a Store implementation based on opts.Backend.
func NewStoreFromOptions(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "filesystem":
		if opts.Dir == "" {
			return nil, fmt.Errorf("filesystem snapshot store requires a directory")
		}
		return NewFileStore(opts.Dir), nil
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		if opts.S3Bucket == "" {
			return nil, fmt.Errorf("s3 snapshot store requires a bucket")
		}
		client, err := newS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, opts.S3Bucket, opts.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", opts.Backend)
	}
}

func newS3Client(ctx context.Context, opts Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.S3Region))
	}
	if opts.S3AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.S3AccessKeyID, opts.S3SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
