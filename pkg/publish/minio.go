package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shouni/gemini-facade-studio/pkg/domain"
)

// ObjectStorage は MinIO クライアントのうち書き出しに使うメソッドです。
type ObjectStorage interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

var _ ObjectStorage = (*minio.Client)(nil)

// MinioOptions は MinIO/S3 への接続設定です。
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PresignTTL が正の場合、書き出し先として署名付き URL を返します。
	PresignTTL time.Duration
}

// MinioPublisher は MinIO/S3 互換のバケットへ書き出します。
type MinioPublisher struct {
	client     ObjectStorage
	bucket     string
	region     string
	presignTTL time.Duration
}

// NewMinioClient は静的な認証情報で MinIO クライアントを作成します。
func NewMinioClient(opts MinioOptions) (*minio.Client, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// NewMinioPublisher は MinioPublisher を初期化します。
func NewMinioPublisher(client ObjectStorage, opts MinioOptions) (*MinioPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &MinioPublisher{
		client:     client,
		bucket:     opts.Bucket,
		region:     opts.Region,
		presignTTL: opts.PresignTTL,
	}, nil
}

// Publish はバケットへアップロードし、s3:// の場所か署名付き URL を返します。
func (p *MinioPublisher) Publish(ctx context.Context, name string, img domain.ImageAsset) (string, error) {
	if err := validate(name, img); err != nil {
		return "", err
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", err
	}

	info, err := p.client.PutObject(ctx, p.bucket, name, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", p.bucket, name, err)
	}
	slog.InfoContext(ctx, "画像をアップロードしました", "bucket", info.Bucket, "key", info.Key, "size", info.Size)

	if p.presignTTL > 0 {
		u, err := p.client.PresignedGetObject(ctx, p.bucket, name, p.presignTTL, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s/%s: %w", p.bucket, name, err)
		}
		return u.String(), nil
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, name), nil
}

func (p *MinioPublisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", p.bucket, err)
	}
	slog.InfoContext(ctx, "バケットを作成しました", "bucket", p.bucket)
	return nil
}
