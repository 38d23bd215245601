package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地磁盘存储
type LocalStore struct {
	root      string
	publicURL string
}

// NewLocalStore 创建本地存储
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	return &LocalStore{
		root:      root,
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
	}, nil
}

// Root 存储根目录
func (s *LocalStore) Root() string {
	return s.root
}

// Put 写入文件
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	key = CleanKey(key)
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, body); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.URL(ctx, key)
}

// Delete 删除文件（不存在视为成功）
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key = CleanKey(key)
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL 返回访问地址
func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	key = CleanKey(key)
	if key == "" {
		return "", nil
	}
	return s.publicURL + "/" + key, nil
}
