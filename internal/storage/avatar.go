// Package storage keeps user uploads in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"afriotv/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const MaxAvatarSize = 5 << 20

var (
	ErrFileTooLarge = errors.New("file exceeds the 5 MB limit")
	ErrNotImage     = errors.New("avatar must be an image")
)

// ClientMinio is the part of the MinIO client the store uses.
type ClientMinio interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

type AvatarStore interface {
	Upload(ctx context.Context, uid, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type MinioAvatarStore struct {
	client     ClientMinio
	bucket     string
	publicBase string
}

func NewMinioClient(cfg config.MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

func NewMinioAvatarStore(client ClientMinio, bucket, publicBase string) *MinioAvatarStore {
	return &MinioAvatarStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// EnsureBucket creates the bucket on first start.
func (s *MinioAvatarStore) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores the avatar under avatars/{uid}/ and returns its public URL.
func (s *MinioAvatarStore) Upload(ctx context.Context, uid, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if size > MaxAvatarSize {
		return "", ErrFileTooLarge
	}
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	key := ObjectKey(uid, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, io.LimitReader(r, MaxAvatarSize), size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.publicBase + "/" + s.bucket + "/" + key, nil
}

// ObjectKey names a fresh object for an upload, keeping the file extension.
func ObjectKey(uid, filename string) string {
	return "avatars/" + uid + "/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
}
