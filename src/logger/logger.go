package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"memo-app/src/config"

	"github.com/sirupsen/logrus"
)

const logFileLayout = "app_2006-01-02_15-04-05.log"

var (
	// Log はアプリケーション全体で共有するロガー（InitLogger前は標準出力のみ）
	Log         = logrus.New()
	currentFile *os.File
)

// InitLogger LogConfigに従ってJSONロガーを組み立てる。
// Directoryが空なら標準出力のみに書く。
func InitLogger(cfg config.LogConfig) error {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	var file *os.File
	if cfg.Directory != "" {
		file, err = openLogFile(cfg.Directory, time.Now())
		if err != nil {
			return err
		}
		l.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	CloseLogger()
	Log, currentFile = l, file

	Log.WithFields(logrus.Fields{
		"level": level.String(),
		"file":  GetCurrentLogFile(),
	}).Info("ロガーが初期化されました")
	return nil
}

func openLogFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ログディレクトリの作成に失敗: %w", err)
	}

	path := filepath.Join(dir, now.Format(logFileLayout))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("ログファイルの作成に失敗: %w", err)
	}
	return file, nil
}

// GetCurrentLogFile 書き込み中のログファイル（LogUploaderはこれを除外する）
func GetCurrentLogFile() string {
	if currentFile != nil {
		return currentFile.Name()
	}
	return ""
}

// CloseLogger ログファイルを閉じて標準出力に戻す
func CloseLogger() {
	if currentFile == nil {
		return
	}
	Log.SetOutput(os.Stdout)
	currentFile.Close()
	currentFile = nil
}

// WithFields フィールド付きログエントリを作成
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// WithField フィールド付きログエントリを作成（単一フィールド）
func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}
