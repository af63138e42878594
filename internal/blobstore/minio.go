package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures publication to an S3-compatible bucket.
type MinioConfig struct {
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// MinioPublisher mirrors stored files to a MinIO/S3 bucket.
type MinioPublisher struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioPublisher connects to the configured endpoint and ensures the
// bucket exists.
func NewMinioPublisher(ctx context.Context, cfg MinioConfig) (*MinioPublisher, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("publish endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("publish bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioPublisher{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
	}, nil
}

// Publish uploads data under key and returns its public URL.
func (p *MinioPublisher) Publish(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	info, err := p.client.PutObject(ctx, p.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return ObjectURL(p.baseURL, info.Key), nil
}

// Remove deletes the object stored under key.
func (p *MinioPublisher) Remove(ctx context.Context, key string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL returns the object key of a URL produced by Publish.
func (p *MinioPublisher) KeyFromURL(url string) (string, bool) {
	return keyFromObjectURL(p.baseURL, url)
}

// ObjectURL joins a public base URL and an object key.
func ObjectURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

func publicBaseURL(cfg MinioConfig) string {
	if base := strings.TrimSpace(cfg.PublicBaseURL); base != "" {
		return base
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func keyFromObjectURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimLeft(strings.TrimPrefix(url, prefix), "/")
	if key == "" {
		return "", false
	}
	return key, true
}
