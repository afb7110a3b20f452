// Package storage copies backup snapshots to an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when a requested object is absent.
var ErrObjectNotFound = errors.New("object not found in bucket")

// FileStorage is the object store a snapshot is replicated to.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// MinioConfig holds the connection settings for MinIO or any S3 endpoint.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// MinioClient implements FileStorage on top of minio-go.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// NewMinioClient connects to the endpoint and creates the bucket if needed.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	log.Printf("[Minio] Connecting to %s", cfg.Endpoint)
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.BucketName, err)
		}
		log.Printf("[Minio] Created bucket %q", cfg.BucketName)
	}
	return &MinioClient{client: client, bucketName: cfg.BucketName}, nil
}

// UploadFile stores reader under objectKey.
func (c *MinioClient) UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	info, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %q: %w", objectKey, err)
	}
	log.Printf("[Minio] Uploaded %s (%d bytes, etag %s)", objectKey, info.Size, info.ETag)
	return nil
}

// DownloadFile opens objectKey for reading. The caller closes the reader.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", objectKey, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat %q: %w", objectKey, err)
	}
	return obj, nil
}

// Replicator uploads finished snapshot files to a FileStorage.
type Replicator struct {
	store  FileStorage
	prefix string
}

// NewReplicator uploads under prefix/<filename>.
func NewReplicator(store FileStorage, prefix string) *Replicator {
	return &Replicator{store: store, prefix: prefix}
}

// Replicate uploads the file at path.
func (r *Replicator) Replicate(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	return r.store.UploadFile(ctx, r.key(filepath.Base(path)), f, st.Size(), "application/vnd.sqlite3")
}

// Fetch copies a replicated snapshot named filename into dst.
func (r *Replicator) Fetch(ctx context.Context, filename, dst string) error {
	rc, err := r.store.DownloadFile(ctx, r.key(filename))
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (r *Replicator) key(filename string) string {
	if r.prefix == "" {
		return filename
	}
	return r.prefix + "/" + filename
}
