package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/printdesk-next/internal/config"
	"github.com/printdesk-next/internal/constants"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("storage object not found")

// BlobStore 文件对象存储接口
type BlobStore interface {
	// Put 写入对象，返回可访问的地址
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// New 根据配置创建存储驱动
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", constants.StorageDriverLocal:
		return NewLocalStore(cfg.Local.Root, cfg.Local.PublicURL)
	case constants.StorageDriverMemory:
		return NewMemoryStore(), nil
	case constants.StorageDriverS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// CleanKey 规范化对象 key，去掉首尾斜杠与上级目录引用
func CleanKey(key string) string {
	parts := strings.Split(strings.ReplaceAll(key, "\\", "/"), "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." || part == ".." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}
