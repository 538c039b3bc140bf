package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"ai-interview-go/internal/config"
	"ai-interview-go/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// MinIO 提供对象存储功能，负责会话记录归档
type MinIO struct {
	client           *minio.Client
	cfg              *config.MinIOConfig
	transcriptBucket string
}

// NewMinIO 创建 MinIO 客户端并准备归档桶
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO 配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint 不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	bucket := cfg.TranscriptBucket
	if bucket == "" {
		bucket = "interview-transcripts"
	}

	m := &MinIO{
		client:           client,
		cfg:              cfg,
		transcriptBucket: bucket,
	}

	if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("准备归档桶失败: %w", err)
	}

	// 过期规则失败不阻塞启动
	if cfg.TranscriptExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), bucket, "transcript-expiry", cfg.TranscriptExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", bucket).Msg("设置归档桶过期规则失败")
		}
	}

	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在失败: %w", bucketName, err)
	}

	if !exists {
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		logger.Info().Str("bucket", bucketName).Msg("已创建归档桶")
	}

	return nil
}

// setupBucketLifecycle 设置存储桶的对象过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}

	if err := m.client.SetBucketLifecycle(ctx, bucketName, lc); err != nil {
		return fmt.Errorf("设置存储桶 %s 的过期规则失败: %w", bucketName, err)
	}

	logger.Info().Str("bucket", bucketName).Int("expiry_days", expiryDays).Msg("归档桶过期规则已生效")
	return nil
}

// ArchiveTranscript 归档一个会话的完整对话记录
// 返回对象名 transcripts/{sessionID}.json
func (m *MinIO) ArchiveTranscript(ctx context.Context, sessionID string, data []byte) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionID 不能为空")
	}

	objectName := fmt.Sprintf("transcripts/%s.json", sessionID)

	_, err := m.client.PutObject(ctx, m.transcriptBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("归档会话记录 %s 失败: %w", sessionID, err)
	}

	logger.Info().Str("session_id", sessionID).Str("object", objectName).Int("bytes", len(data)).Msg("会话记录已归档")
	return objectName, nil
}

// GetTranscript 读取归档的会话记录
func (m *MinIO) GetTranscript(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.transcriptBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取归档对象 %s 失败: %w", objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("读取归档对象 %s 内容失败: %w", objectName, err)
	}
	return buf.Bytes(), nil
}

// GetPresignedURL 生成归档对象的预签名下载链接
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.transcriptBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}
