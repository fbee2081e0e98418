package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"memo-app/src/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"
)

var _ domain.KeyValueStore = (*S3Store)(nil)

// S3Store はキーごとに1オブジェクトを保存するキーバリューストア
type S3Store struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger *logrus.Logger
}

// NewS3Store S3ストアを作成
func NewS3Store(client s3iface.S3API, bucket, prefix string, logger *logrus.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimSuffix(s.prefix, "/") + "/" + key
}

// Get キーのオブジェクトを取得（存在しなければfalse）
func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		s.logger.WithError(err).WithField("key", key).Error("S3オブジェクトの取得に失敗")
		return "", false, fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set キーのオブジェクトを書き込み
func (s *S3Store) Set(ctx context.Context, key, value string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader([]byte(value)),
		ContentType: aws.String("application/json; charset=utf-8"),
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("S3オブジェクトの保存に失敗")
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
}
