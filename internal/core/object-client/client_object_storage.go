package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phuslu/log"

	cfg "github.com/markdave123-py/Archiva/internal/config"
	"github.com/markdave123-py/Archiva/internal/core"
)

// S3Client implements core.ObjectClient against AWS S3 (or any compatible
// store).
type S3Client struct {
	client *s3.Client
	bucket string
	logger *log.Logger
}

func NewS3Client(ctx context.Context, cfg *cfg.Config, logger *log.Logger) (*S3Client, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.AwsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Client{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.BucketName,
		logger: logger,
	}, nil
}

// UploadFile writes data under key. If the store rejects the real content
// type for MIME-policy reasons it retries exactly once with
// application/octet-stream; this shim is narrowly scoped and is not a
// general retry policy.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	err := c.put(ctxUpload, key, data, contentType)
	if err == nil {
		return nil
	}
	if contentType != "application/octet-stream" && isMimeRejection(err) {
		c.logger.Warn().Str("key", key).Str("content_type", contentType).
			Msg("content type rejected by blob store, retrying as octet-stream")
		if retryErr := c.put(ctxUpload, key, data, "application/octet-stream"); retryErr == nil {
			return nil
		}
	}
	return &core.StorageError{Op: "put", Key: key, Err: err}
}

func (c *S3Client) put(ctx context.Context, key string, data []byte, contentType string) error {
	uploader := manager.NewUploader(c.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

func (c *S3Client) GetFile(ctx context.Context, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := c.client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &core.StorageError{Op: "get", Key: key, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.StorageError{Op: "get", Key: key, Err: err}
	}
	return body, nil
}

func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &core.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// isMimeRejection sniffs storage-policy rejections of a content type.
func isMimeRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "content-type") ||
		strings.Contains(msg, "content type") ||
		strings.Contains(msg, "mime")
}

var _ core.ObjectClient = (*S3Client)(nil)
