package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "notebook_service/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore uploads files to an S3-compatible bucket and returns the
// public URL they are served from.
type ObjectStore struct {
	client    *s3.Client
	bucket    string
	dir       string
	publicURL string
}

func New(ctx context.Context, cfg *appconfig.Config) (*ObjectStore, error) {
	const op = "storage.s3.New"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.OSS.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.OSS.AccessKey, cfg.OSS.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.OSS.Endpoint)
		o.UsePathStyle = true
	})

	return &ObjectStore{
		client:    client,
		bucket:    cfg.OSS.Bucket,
		dir:       cfg.OSS.Dir,
		publicURL: strings.TrimRight(cfg.OSS.PublicURL, "/"),
	}, nil
}

// Put stores the bytes under a date-partitioned key derived from the
// original file name's extension and returns the public URL.
func (s *ObjectStore) Put(ctx context.Context, originalName string, data []byte, contentType string) (string, error) {
	const op = "storage.s3.Put"

	key := s.objectKey(originalName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *ObjectStore) objectKey(originalName string) string {
	ext := ""
	if i := strings.LastIndex(originalName, "."); i >= 0 {
		ext = originalName[i:]
	}

	now := time.Now()

	return fmt.Sprintf("%s/%s/%d%s", s.dir, now.Format("2006-01-02"), now.UnixMilli(), ext)
}
