package artifact

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens artifacts by URI.
type Source interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FileSource reads plain paths and file:// URIs from the local filesystem.
type FileSource struct{}

func (FileSource) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// S3GetObjectAPI is the subset of the S3 client used to fetch artifacts.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads s3://bucket/key URIs.
type S3Source struct {
	client S3GetObjectAPI
}

// NewS3Source wraps an S3 client.
func NewS3Source(client S3GetObjectAPI) *S3Source {
	return &S3Source{client: client}
}

// NewS3SourceFromEnv builds an S3 client from the default AWS credential chain.
func NewS3SourceFromEnv(ctx context.Context, region string) (*S3Source, error) {
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Source(s3.NewFromConfig(awsCfg)), nil
}

func (s *S3Source) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: want s3://bucket/key", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Router dispatches s3:// URIs to an S3 source and everything else to the filesystem.
type Router struct {
	files FileSource
	s3    Source
}

// NewRouter creates a Router. s3 may be nil when no S3 URIs are configured.
func NewRouter(s3 Source) *Router {
	return &Router{s3: s3}
}

func (r *Router) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if strings.HasPrefix(uri, "s3://") {
		if r.s3 == nil {
			return nil, fmt.Errorf("no S3 source configured for %s", uri)
		}
		return r.s3.Open(ctx, uri)
	}
	return r.files.Open(ctx, uri)
}

// IsS3 reports whether any of the URIs needs an S3 source.
func IsS3(uris ...string) bool {
	for _, u := range uris {
		if strings.HasPrefix(u, "s3://") {
			return true
		}
	}
	return false
}
