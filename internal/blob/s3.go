package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

func (cfg S3Config) validate() error {
	if cfg.Endpoint == "" || cfg.Region == "" || cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return errors.New("S3_ENDPOINT, S3_REGION, S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set")
	}
	return nil
}

func (cfg S3Config) endpointURL() string {
	if cfg.UseSSL {
		return "https://" + cfg.Endpoint
	}
	return "http://" + cfg.Endpoint
}

// S3Store keeps blobs in an S3-compatible bucket (AWS or MinIO).
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

var _ Store = (*S3Store)(nil)

// NewS3Store connects to the bucket and creates it when it does not exist yet.
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = aws.String(cfg.endpointURL())
		options.UsePathStyle = true
	})
	store := &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}

	if err := store.ensureBucket(ctx, cfg.Region, logger); err != nil {
		return nil, err
	}
	return store, nil
}

func (store *S3Store) ensureBucket(ctx context.Context, region string, logger *slog.Logger) error {
	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := store.client.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(store.bucket)}); err == nil {
		return nil
	}

	logger.Info("creating blob bucket", "bucket", store.bucket)
	if _, err := store.client.CreateBucket(ctx, createBucketInput(store.bucket, region)); err != nil {
		return fmt.Errorf("create bucket %s: %w", store.bucket, err)
	}

	waiter := s3.NewBucketExistsWaiter(store.client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(store.bucket)}, 30*time.Second); err != nil {
		return fmt.Errorf("wait for bucket %s: %w", store.bucket, err)
	}
	return nil
}

// createBucketInput leaves out the location constraint for us-east-1, which
// S3 rejects when it is sent explicitly.
func createBucketInput(bucket, region string) *s3.CreateBucketInput {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	return input
}

func (store *S3Store) Put(ctx context.Context, contentType string, body io.Reader, _ int64) (string, error) {
	key, err := newObjectKey(contentType)
	if err != nil {
		return "", err
	}

	_, err = store.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}
	return refForKey(key), nil
}

func (store *S3Store) Get(ctx context.Context, ref string) (Object, error) {
	key, err := KeyFromRef(ref)
	if err != nil {
		return Object{}, err
	}

	output, err := store.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("get blob %s: %w", key, err)
	}

	contentType := aws.ToString(output.ContentType)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	return Object{
		Body:        output.Body,
		ContentType: contentType,
		Size:        aws.ToInt64(output.ContentLength),
	}, nil
}

func (store *S3Store) Delete(ctx context.Context, ref string) error {
	key, err := KeyFromRef(ref)
	if err != nil {
		return err
	}

	_, err = store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(store.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}
