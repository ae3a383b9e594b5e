// Package storage archives version snapshot payloads to object storage.
// Archival is strictly best-effort: the Mongo version record is the source of
// truth and an unreachable archive never fails a snapshot.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// VersionArchive stores full snapshot payloads under versions/<docID>/<n>.
type VersionArchive struct {
	client *minio.Client
	bucket string
}

// NewVersionArchive creates the MinIO client and ensures the bucket exists.
func NewVersionArchive(cfg *Config) (*VersionArchive, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	a := &VersionArchive{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, a.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return a, nil
}

func objectKey(docID string, version int64) string {
	return fmt.Sprintf("versions/%s/%d", docID, version)
}

// Put uploads one snapshot payload.
func (a *VersionArchive) Put(ctx context.Context, docID string, version int64, content string) error {
	r := strings.NewReader(content)
	_, err := a.client.PutObject(ctx, a.bucket, objectKey(docID, version), r, int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	return err
}

// Get downloads one archived snapshot payload.
func (a *VersionArchive) Get(ctx context.Context, docID string, version int64) (string, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectKey(docID, version), minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remove deletes every archived version of a document (used on document delete).
func (a *VersionArchive) Remove(ctx context.Context, docID string, upTo int64) error {
	var firstErr error
	for v := int64(1); v <= upTo; v++ {
		if err := a.client.RemoveObject(ctx, a.bucket, objectKey(docID, v), minio.RemoveObjectOptions{}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
