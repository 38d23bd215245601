package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/printdesk-next/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store S3 兼容对象存储
type S3Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	publicURL  string
	presignTTL time.Duration
}

// NewS3Store 创建 S3 存储
func NewS3Store(ctx context.Context, cfg config.S3StorageConfig) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("load aws config failed: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	ttl := time.Duration(cfg.PresignMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicURL:  strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/"),
		presignTTL: ttl,
	}, nil
}

// Put 上传对象
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	key = CleanKey(key)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put object failed: %w", err)
	}
	return s.URL(ctx, key)
}

// Delete 删除对象
func (s *S3Store) Delete(ctx context.Context, key string) error {
	key = CleanKey(key)
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object failed: %w", err)
	}
	return nil
}

// URL 返回对象地址：配置了公开地址时直接拼接，否则生成预签名地址
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	key = CleanKey(key)
	if key == "" {
		return "", nil
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("s3 presign failed: %w", err)
	}
	return request.URL, nil
}
