// Package storage writes run outputs to a local directory or an S3 bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	rtconfig "road-tracer/internal/config"
)

// Sink stores named output files.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes outputs below a local directory.
type FileSink struct {
	Dir string
}

// Put writes data to Dir/name, creating directories as needed, and returns
// the written path.
func (s FileSink) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}

// ObjectPutter is the part of the S3 client S3Sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads outputs to a bucket under a key prefix.
type S3Sink struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

// NewS3Client builds an S3 client from the AWS_REGION, AWS_ENDPOINT,
// AWS_ACCESS_KEY and AWS_SECRET_KEY environment variables. Path-style
// addressing is used so that S3-compatible stores work.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(rtconfig.GetEnv("AWS_REGION")),
	}
	if endpoint := rtconfig.GetEnv("AWS_ENDPOINT"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if key := rtconfig.GetEnv("AWS_ACCESS_KEY"); key != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			rtconfig.GetEnv("AWS_SECRET_KEY"),
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

// NewS3Sink creates a sink for the bucket named by AWS_BUCKET.
func NewS3Sink(ctx context.Context, prefix string) (*S3Sink, error) {
	bucket := rtconfig.GetEnv("AWS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET is not set")
	}
	client, err := NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return &S3Sink{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

// Put uploads data as Prefix/name and returns the object key.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.Prefix, name)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return key, nil
}

func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".geojson":
		return "application/geo+json"
	case "":
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// PutReader drains r into the sink.
func PutReader(ctx context.Context, sink Sink, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return sink.Put(ctx, name, data)
}
