package storage

import (
	"context"
	"errors"
	"io"
	"sync"
)

// MemoryStore 内存存储，用于测试与本地演示
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// FailPut 非空时所有写入返回该错误
	FailPut error
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put 写入对象
func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if m.FailPut != nil {
		return "", m.FailPut
	}
	key = CleanKey(key)
	if key == "" {
		return "", errors.New("storage key is required")
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = content
	m.mu.Unlock()
	return m.URL(ctx, key)
}

// Delete 删除对象
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, CleanKey(key))
	m.mu.Unlock()
	return nil
}

// URL 返回对象地址
func (m *MemoryStore) URL(_ context.Context, key string) (string, error) {
	return "mem://" + CleanKey(key), nil
}

// Exists 判断对象是否存在
func (m *MemoryStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[CleanKey(key)]
	return ok
}

// Get 读取对象内容
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.objects[CleanKey(key)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), content...), nil
}

// Len 对象数量
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
