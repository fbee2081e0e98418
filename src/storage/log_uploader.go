package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"
)

// ErrInvalidInterval アップロード間隔が0以下
var ErrInvalidInterval = errors.New("log upload interval must be positive")

// LogUploader はローテーション済みのログファイルをS3へ退避する
type LogUploader struct {
	client s3iface.S3API
	bucket string
	logger *logrus.Logger
	// skip は書き込み中のログファイルを返す（アップロード対象外）
	skip func() string
}

// NewLogUploader S3アップローダーを作成
func NewLogUploader(client s3iface.S3API, bucket string, logger *logrus.Logger, currentFile func() string) *LogUploader {
	if currentFile == nil {
		currentFile = func() string { return "" }
	}
	return &LogUploader{
		client: client,
		bucket: bucket,
		logger: logger,
		skip:   currentFile,
	}
}

// UploadLogFile ログファイルをS3にアップロード
func (u *LogUploader) UploadLogFile(ctx context.Context, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	defer file.Close()

	fileName := filepath.Base(filePath)
	objectKey := fmt.Sprintf("logs/%s", fileName)

	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String("text/plain"),
		Metadata: map[string]*string{
			"upload-time": aws.String(time.Now().Format(time.RFC3339)),
			"source":      aws.String("memo-app"),
		},
	})
	if err != nil {
		return fmt.Errorf("S3アップロードに失敗: %w", err)
	}

	u.logger.WithFields(logrus.Fields{
		"file":   fileName,
		"bucket": u.bucket,
		"key":    objectKey,
	}).Info("ログファイルをS3にアップロードしました")
	return nil
}

// UploadOldLogs maxAgeより古いログファイルをアップロードして削除
func (u *LogUploader) UploadOldLogs(ctx context.Context, logDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return fmt.Errorf("ログディレクトリの読み取りに失敗: %w", err)
	}

	cutoffTime := time.Now().Add(-maxAge)
	current := u.skip()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		filePath := filepath.Join(logDir, entry.Name())
		if current != "" && filepath.Clean(filePath) == filepath.Clean(current) {
			continue
		}

		fileInfo, err := entry.Info()
		if err != nil {
			u.logger.WithError(err).WithField("file", entry.Name()).Error("ファイル情報の取得に失敗")
			continue
		}
		if !fileInfo.ModTime().Before(cutoffTime) {
			continue
		}

		if err := u.UploadLogFile(ctx, filePath); err != nil {
			u.logger.WithError(err).WithField("file", entry.Name()).Error("ログファイルのアップロードに失敗")
			continue
		}

		if err := os.Remove(filePath); err != nil {
			u.logger.WithError(err).WithField("file", entry.Name()).Error("ローカルファイルの削除に失敗")
		}
	}

	return nil
}

// StartPeriodicUpload ctxがキャンセルされるまで定期的にアップロードする
func (u *LogUploader) StartPeriodicUpload(ctx context.Context, logDir string, interval, maxAge time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := u.UploadOldLogs(ctx, logDir, maxAge); err != nil {
					u.logger.WithError(err).Error("定期的なログアップロードに失敗")
				}
			}
		}
	}()

	u.logger.WithFields(logrus.Fields{
		"interval": interval,
		"maxAge":   maxAge,
	}).Info("定期的なログアップロードを開始しました")
	return nil
}
