// Package extract fetches government conviction extract files for the
// import pipeline. Extracts arrive as CSV, sometimes gzip-compressed,
// either on local disk or in an S3 bucket.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
)

// Source opens one extract file by reference.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LocalSource reads extracts from the filesystem.
type LocalSource struct{}

func (LocalSource) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open extract %s: %w", ref, err)
	}
	return f, nil
}

// S3Source reads extracts from an S3 bucket.
type S3Source struct {
	client *s3.Client
	bucket string
}

// NewS3Source builds a source using the ambient AWS credential chain.
func NewS3Source(ctx context.Context, region, bucket string) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Source{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3Source) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch extract s3://%s/%s: %w", s.bucket, ref, err)
	}
	return out.Body, nil
}

// Open fetches a reference through the source, transparently decompressing
// .gz extracts.
func Open(ctx context.Context, source Source, ref string) (io.ReadCloser, error) {
	rc, err := source.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(ref, ".gz") {
		return rc, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("decompress extract %s: %w", ref, err)
	}
	return &gzipReadCloser{Reader: gz, inner: rc}, nil
}

// gzipReadCloser closes both the gzip stream and the underlying file.
type gzipReadCloser struct {
	*gzip.Reader
	inner io.Closer
}

func (g *gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		g.inner.Close()
		return err
	}
	return g.inner.Close()
}
