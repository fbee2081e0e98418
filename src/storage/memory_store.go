package storage

import (
	"context"
	"sync"

	"memo-app/src/domain"
)

var _ domain.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore はプロセス内のmapに値を保持するキーバリューストア
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore 空のインメモリストアを作成
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get キーの値を取得
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

// Set キーに値を保存
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}
