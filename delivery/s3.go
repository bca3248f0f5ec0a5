package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Options holds settings for an S3-compatible bucket (AWS S3, MinIO, ...).
type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Prefix       string
}

// s3API 是 S3Sink 用到的客户端子集，测试时替换。
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads labels as objects under <prefix>/<folder>/<name>.
type S3Sink struct {
	client s3API
	bucket string
	prefix string
	logger *zap.Logger
}

// S3SinkOption is a functional option for configuring S3Sink
type S3SinkOption func(*S3Sink)

func WithS3Logger(l *zap.Logger) S3SinkOption {
	return func(s *S3Sink) { s.logger = l }
}

// NewS3Sink creates an S3 sink. Empty credentials fall back to the default AWS chain.
func NewS3Sink(ctx context.Context, opts S3Options, sinkOpts ...S3SinkOption) (*S3Sink, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket 不能为空")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return newS3Sink(client, opts.Bucket, opts.Prefix, sinkOpts...), nil
}

func newS3Sink(client s3API, bucket, prefix string, opts ...S3SinkOption) *S3Sink {
	s := &S3Sink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureFolder 对象存储没有目录，无需创建。
func (s *S3Sink) EnsureFolder(context.Context, string) error { return nil }

func (s *S3Sink) Upload(ctx context.Context, folder, name string, data []byte) error {
	key := path.Join(s.prefix, folder, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("上传对象 %s 失败: %w", key, err)
	}
	s.logger.Debug("对象已上传", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

var _ Sink = (*S3Sink)(nil)
