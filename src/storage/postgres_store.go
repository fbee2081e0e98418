package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"memo-app/src/database"
	"memo-app/src/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.KeyValueStore = (*PostgresStore)(nil)

const kvSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresStore はkv_storeテーブルに値を保存するキーバリューストア
type PostgresStore struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewPostgresStore テーブルを用意してストアを作成
func NewPostgresStore(ctx context.Context, db *database.DB, logger *logrus.Logger) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	logger.Info("PostgreSQLストアを初期化しました")
	return &PostgresStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get キーの値を取得
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("キーの取得に失敗")
		return "", false, fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, true, nil
}

// Set キーに値を保存（upsert）
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("キーの保存に失敗")
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}
