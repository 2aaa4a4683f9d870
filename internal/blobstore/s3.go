// Package blobstore реализует хранение изображений профиля в S3-совместимом
// хранилище (MinIO в локальной среде): загрузил блоб — получил URL.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/healthlife-backend/internal/config"
)

// Store загружает блобы в бакет и выдает ссылки на них.
type Store struct {
	client *s3.Client
	bucket string
}

// New создает Store по настройкам из конфига.
func New(ctx context.Context, cfg config.S3) (*Store, error) {
	const op = "blobstore.New"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// randomKey возвращает ключ объекта, разложенный по дате загрузки.
func randomKey() string {
	d := time.Now()
	return fmt.Sprintf("profiles/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Upload сохраняет блоб и возвращает presigned-ссылку на чтение.
func (s *Store) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	const op = "blobstore.Upload"

	key := randomKey()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	presign := s3.NewPresignClient(s.client)
	req, err := presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(7*24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return req.URL, nil
}
