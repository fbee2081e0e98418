package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"memo-app/src/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.KeyValueStore = (*FileStore)(nil)

// FileStore は全キーを1つのJSONファイルに保存するキーバリューストア。
// ブラウザのlocalStorageに相当するデフォルトの永続化先。
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *logrus.Logger
}

// NewFileStore ファイルストアを作成（親ディレクトリがなければ作成）
func NewFileStore(path string, logger *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.WithField("path", path).Info("ファイルストアを初期化しました")
	return &FileStore{
		path:   path,
		logger: logger,
	}, nil
}

// Path 保存先ファイルのパスを取得
func (s *FileStore) Path() string {
	return s.path
}

// Get キーの値を取得
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}

	value, ok := values[key]
	return value, ok, nil
}

// Set キーに値を保存（一時ファイルに書いてからrenameする）
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memos-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"key":  key,
		"path": s.path,
	}).Debug("ファイルストアに書き込みました")
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptState, s.path, err)
	}
	return values, nil
}
