package storage

import (
	"context"
	"fmt"

	"memo-app/src/config"
	"memo-app/src/database"
	"memo-app/src/domain"

	"github.com/sirupsen/logrus"
)

// Open 設定に従ってキーバリューストアを開く。closeは必ず呼び出すこと。
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		fs, err := NewFileStore(cfg.Storage.FilePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil

	case config.BackendMemory:
		logger.Warn("インメモリストアを使用します（再起動でメモは失われます）")
		return NewMemoryStore(), noop, nil

	case config.BackendPostgres:
		db, err := database.NewDB(ctx, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		ps, err := NewPostgresStore(ctx, db, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return ps, db.Close, nil

	case config.BackendS3:
		client, err := NewS3Client(S3ConfigFrom(cfg))
		if err != nil {
			return nil, nil, err
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.Storage.S3Prefix, logger), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

// S3ConfigFrom アプリケーション設定からS3接続設定を作成
func S3ConfigFrom(cfg *config.Config) *S3Config {
	return &S3Config{
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		UseSSL:          cfg.S3.UseSSL,
	}
}
