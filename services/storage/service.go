package storage

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/supportos/complaintstack/config"
	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/tracing"
	"github.com/supportos/complaintstack/services/storage/aws_client"
)

type storageService struct {
	cfg      *config.StorageConfig
	s3Client aws_client.S3Client
}

func NewStorageService(cfg *config.StorageConfig) interfaces.StorageService {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		// Endpoint override is used for MinIO in local and test setups.
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	return &storageService{
		cfg:      cfg,
		s3Client: aws_client.NewS3Client(awsConfig),
	}
}

func (s *storageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key, "size", len(data))

	err := s.s3Client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.AttachmentBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to upload attachment")
	}
	return nil
}

func (s *storageService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	data, err := s.s3Client.Download(ctx, s.cfg.AttachmentBucket, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to download attachment")
	}
	return data, nil
}

func (s *storageService) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.PresignedURL")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	if ttl <= 0 {
		ttl = s.cfg.PresignedURLLived
	}
	url, err := s.s3Client.PresignGet(ctx, s.cfg.AttachmentBucket, key, ttl)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to presign attachment url")
	}
	return url, nil
}

func (s *storageService) Bucket() string {
	return s.cfg.AttachmentBucket
}
