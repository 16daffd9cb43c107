package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Reference identifies an uploaded artifact.
type Reference struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	ETag   string `json:"etag,omitempty"`
	URL    string `json:"url"`
}

// ArtifactStore persists rendered documents.
type ArtifactStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (Reference, error)
	PublicURL(path string) string
}

type MinioService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioService(cfg *config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     cfg.UseSSL,
		Region:     cfg.Region,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return &model.StorageError{Op: "check bucket", Path: s.bucket, Err: err}
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.config.Region})
		if err != nil {
			return &model.StorageError{Op: "create bucket", Path: s.bucket, Err: err}
		}
	}

	return nil
}

// Ping checks that the bucket is reachable.
func (s *MinioService) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return &model.StorageError{Op: "check bucket", Path: s.bucket, Err: err}
	}
	return nil
}

// Upload stores data under path. Unless overwrite is enabled an existing
// object at the same path fails with model.ErrArtifactExists.
func (s *MinioService) Upload(ctx context.Context, path string, data []byte, contentType string) (Reference, error) {
	if !s.config.Overwrite {
		exists, err := s.exists(ctx, path)
		if err != nil {
			return Reference{}, &model.StorageError{Op: "stat", Path: path, Err: err}
		}
		if exists {
			return Reference{}, &model.StorageError{Op: "upload", Path: path, Err: model.ErrArtifactExists}
		}
	}

	info, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Reference{}, &model.StorageError{Op: "upload", Path: path, Err: err}
	}

	return Reference{
		Bucket: s.bucket,
		Path:   path,
		ETag:   info.ETag,
		URL:    s.PublicURL(path),
	}, nil
}

func (s *MinioService) exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

// PublicURL returns the public URL for the object. Pure string templating:
// the object may not exist.
func (s *MinioService) PublicURL(path string) string {
	return PublicObjectURL(s.publicBase(), s.bucket, path)
}

func (s *MinioService) publicBase() string {
	if s.config.PublicBaseURL != "" {
		return s.config.PublicBaseURL
	}
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s", protocol, s.config.Endpoint)
}

// PublicObjectURL joins base, bucket and an escaped object path.
func PublicObjectURL(base, bucket, path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.Join(segments, "/"))
}
