package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"surge/internal/logging"
)

// S3 allows at most this many keys per list page and per DeleteObjects call.
const s3PageSize = 1000

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var _ S3API = (*s3.Client)(nil)

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// Required by most S3-compatible services that lack virtual hosting.
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	ACL            string `mapstructure:"acl"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

// S3 writes objects to a single bucket.
type S3 struct {
	client S3API
	bucket string
	acl    string
}

// NewS3 builds a client from cfg. Static credentials are used when given,
// otherwise the default AWS credential chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, &OpError{Backend: "s3", Op: "init", Err: errors.New("bucket is required")}
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &OpError{Backend: "s3", Op: "init", Err: err}
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3WithClient(client, cfg.Bucket, cfg.ACL), nil
}

// NewS3WithClient wraps an existing client, mainly for tests.
func NewS3WithClient(client S3API, bucket, acl string) *S3 {
	return &S3{client: client, bucket: bucket, acl: acl}
}

func (s *S3) Name() string { return "s3" }

func (s *S3) Put(ctx context.Context, key string, body []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if s.acl != "" {
		in.ACL = awstypes.ObjectCannedACL(s.acl)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return &OpError{Backend: "s3", Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]Item, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(s3PageSize),
	})
	if err != nil {
		return nil, &OpError{Backend: "s3", Op: "list", Key: prefix, Err: err}
	}

	items := make([]Item, 0, len(out.CommonPrefixes)+len(out.Contents))
	for _, p := range out.CommonPrefixes {
		items = append(items, Item{Key: aws.ToString(p.Prefix), Type: TypeFolder})
	}
	for _, o := range out.Contents {
		items = append(items, Item{
			Key:          aws.ToString(o.Key),
			Size:         aws.ToInt64(o.Size),
			LastModified: o.LastModified,
			Type:         TypeFile,
		})
	}
	return items, nil
}

// DeletePrefix pages through every key under prefix and deletes each page
// with one DeleteObjects call.
func (s *S3) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, ErrEmptyPrefix
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(s3PageSize),
	})

	deleted, failed := 0, 0
	var firstErr string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, &OpError{Backend: "s3", Op: "list", Key: prefix, Err: err}
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]awstypes.ObjectIdentifier, 0, len(page.Contents))
		for _, o := range page.Contents {
			ids = append(ids, awstypes.ObjectIdentifier{Key: o.Key})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &awstypes.Delete{Objects: ids, Quiet: aws.Bool(false)},
		})
		if err != nil {
			return deleted, &OpError{Backend: "s3", Op: "delete", Key: prefix, Err: err}
		}
		deleted += len(out.Deleted)
		for _, e := range out.Errors {
			failed++
			logging.Warn("Delete error %s: %s", aws.ToString(e.Key), aws.ToString(e.Code))
			if firstErr == "" {
				firstErr = fmt.Sprintf("%s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
			}
		}
	}

	if failed > 0 {
		return deleted, &OpError{
			Backend: "s3",
			Op:      "delete",
			Key:     prefix,
			Err:     fmt.Errorf("%d objects not deleted, first: %s", failed, firstErr),
		}
	}
	return deleted, nil
}

func (s *S3) Close() error { return nil }
