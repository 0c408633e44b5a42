package minio

import (
	"Hydro/internal/api/config"
	"bytes"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/minio/minio-go/v7"
)

// ImageStore 图片上传，失败按固定间隔重试
type ImageStore struct {
	retries int
	delay   time.Duration
}

func NewImageStore(cfg config.MinIOConfig) *ImageStore {
	retries := cfg.UploadRetries
	if retries < 1 {
		retries = 1
	}
	return &ImageStore{
		retries: retries,
		delay:   time.Duration(cfg.UploadRetryDelay) * time.Millisecond,
	}
}

// Upload 上传图片并返回公网地址
func (s *ImageStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		key, err := UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
		if err == nil {
			return GetPublicURL(key), nil
		}
		lastErr = err
		log.WarnContext(ctx, "image upload attempt failed", "attempt", attempt, "object", objectName, "err", err)
		if attempt < s.retries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}
	return "", lastErr
}

// Usage 统计存储桶对象数与总字节数
func (s *ImageStore) Usage(ctx context.Context) (int64, int64, error) {
	if Client == nil {
		return 0, 0, fmt.Errorf("minio client is not initialized")
	}
	var objects, size int64
	for obj := range Client.ListObjects(ctx, MainBucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return objects, size, obj.Err
		}
		objects++
		size += obj.Size
	}
	return objects, size, nil
}

// UploadFile 上传文件到MinIO
func UploadFile(ctx context.Context, objectName string, reader *bytes.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := Client.PutObject(ctx, MainBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}

// GetPublicURL 获取文件的公共访问URL
func GetPublicURL(objectName string) string {
	cfg := config.Cfg.MinIO
	endpoint := cfg.ExternalEndpoint
	protocol := "https"
	if endpoint == "" {
		endpoint = cfg.InternalEndpoint
		if !cfg.InternalUseSSL {
			protocol = "http"
		}
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, MainBucket, objectName)
}
