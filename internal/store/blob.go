package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type BlobConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BlobExporter mirrors generated markdown into an S3-compatible bucket
// so other systems can read the docs without touching the database.
type BlobExporter struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewBlobExporter(cfg BlobConfig) (*BlobExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("blob endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("blob access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("blob bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init blob client: %w", err)
	}

	return &BlobExporter{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (e *BlobExporter) ensureBucket(ctx context.Context) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("exporter is nil")
	}
	e.initOnce.Do(func() {
		exists, err := e.client.BucketExists(ctx, e.bucketName)
		if err != nil {
			e.initErr = err
			return
		}
		if exists {
			return
		}
		e.initErr = e.client.MakeBucket(ctx, e.bucketName, minio.MakeBucketOptions{Region: e.region})
	})
	return e.initErr
}

// Export writes one document's markdown under <product>/<path>.
func (e *BlobExporter) Export(ctx context.Context, productID, path, content string) error {
	if e == nil {
		return fmt.Errorf("exporter is nil")
	}
	productID = strings.TrimSpace(productID)
	path = strings.TrimSpace(path)
	if productID == "" {
		return fmt.Errorf("product_id is required")
	}
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if err := e.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data := []byte(content)
	_, err := e.client.PutObject(ctx, e.bucketName, blobKey(productID, path), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/markdown",
	})
	return err
}

// Fetch reads one exported document back.
func (e *BlobExporter) Fetch(ctx context.Context, productID, path string) (string, error) {
	if e == nil {
		return "", fmt.Errorf("exporter is nil")
	}
	if err := e.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := e.client.GetObject(ctx, e.bucketName, blobKey(productID, path), minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// List returns the exported paths for one product, sorted.
func (e *BlobExporter) List(ctx context.Context, productID string) ([]string, error) {
	if e == nil {
		return nil, fmt.Errorf("exporter is nil")
	}
	if err := e.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	prefix := strings.TrimSuffix(strings.TrimSpace(productID), "/") + "/"
	paths := make([]string, 0, 32)
	for obj := range e.client.ListObjects(ctx, e.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		paths = append(paths, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(paths)
	return paths, nil
}

// GetURL returns a presigned read link valid for one hour.
func (e *BlobExporter) GetURL(ctx context.Context, productID, path string) (string, error) {
	if e == nil || e.client == nil {
		return "", fmt.Errorf("exporter is nil")
	}
	u, err := e.client.PresignedGetObject(ctx, e.bucketName, blobKey(productID, path), time.Hour, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func blobKey(productID, path string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(path), "/")
	return strings.TrimSpace(productID) + "/" + normalized
}
