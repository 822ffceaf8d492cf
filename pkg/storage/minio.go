// Package storage persists uploaded documents (regulatory PDFs, version
// annexes, conformity evidence) in MinIO-compatible object storage. Rows in
// the database keep only the resulting URL.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/conformio/conformio-engine/pkg/config"
)

// DocumentStore uploads and removes objects and renders their public URLs.
type DocumentStore interface {
	// Upload stores the object under a generated key inside bucket/scope
	// and returns the public URL to persist on the owning row.
	Upload(ctx context.Context, bucket, scope, filename string, reader io.Reader, size int64, contentType string) (string, error)

	// Remove deletes an object by the key embedded in its public URL.
	Remove(ctx context.Context, bucket, objectKey string) error

	// PresignedURL returns a time-limited download URL for a private object.
	PresignedURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error)
}

type minioStore struct {
	client *minio.Client
	cfg    *config.StorageConfig
}

// NewMinioStore creates a DocumentStore backed by MinIO and makes sure the
// configured buckets exist.
func NewMinioStore(ctx context.Context, cfg *config.StorageConfig) (DocumentStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	store := &minioStore{client: client, cfg: cfg}
	for _, bucket := range []string{cfg.DocumentsBucket, cfg.AnnexesBucket, cfg.EvidenceBucket} {
		if err := store.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (s *minioStore) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *minioStore) Upload(ctx context.Context, bucket, scope, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(scope, filename)

	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}

	return s.publicURL(bucket, key), nil
}

func (s *minioStore) Remove(ctx context.Context, bucket, objectKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, objectKey, err)
	}
	return nil
}

func (s *minioStore) PresignedURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", bucket, objectKey, err)
	}
	return u.String(), nil
}

func (s *minioStore) publicURL(bucket, key string) string {
	protocol := "http"
	if s.cfg.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.cfg.Endpoint, bucket, key)
}

// ObjectKey builds the storage key for an upload:
// {scope}/{unix-ms}-{random-suffix}.{ext}. Scope identifies the owning
// entity (e.g. "article-versions/<article-id>").
func ObjectKey(scope, filename string) string {
	suffix := make([]byte, 6)
	_, _ = rand.Read(suffix)

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}

	return fmt.Sprintf("%s/%d-%s.%s", strings.Trim(scope, "/"), time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)
}
