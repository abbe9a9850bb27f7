package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/webhook"
)

// S3Client is the subset of the S3 API the archiver calls.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config is read from the environment by config.Load.
type Config struct {
	Enabled        bool          `env:"ARCHIVE_S3_ENABLED" envDefault:"false"`
	Bucket         string        `env:"ARCHIVE_S3_BUCKET"`
	Region         string        `env:"ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"ARCHIVE_S3_SECRET_KEY"`
	Endpoint       string        `env:"ARCHIVE_S3_ENDPOINT"` // for MinIO and friends
	ForcePathStyle bool          `env:"ARCHIVE_S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string        `env:"ARCHIVE_S3_PREFIX" envDefault:"webhooks"`
	Timeout        time.Duration `env:"ARCHIVE_S3_TIMEOUT" envDefault:"5s"`
}

var _ webhook.Archiver = (*S3Archiver)(nil)

// S3Archiver implements webhook.Archiver. It is safe for concurrent use.
type S3Archiver struct {
	client  S3Client
	bucket  string
	prefix  string
	timeout time.Duration
	clock   clock.Clock
}

// Option configures an S3Archiver.
type Option func(*options)

type options struct {
	client    S3Client
	clock     clock.Clock
	awsConfig []func(*config.LoadOptions) error
}

// WithS3Client uses a pre-configured client instead of building one.
func WithS3Client(c S3Client) Option {
	return func(o *options) { o.client = c }
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithAWSConfigOption adds an option passed to config.LoadDefaultConfig.
func WithAWSConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) { o.awsConfig = append(o.awsConfig, opt) }
}

func NewS3Archiver(ctx context.Context, cfg Config, opts ...Option) (*S3Archiver, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{clock: clock.Real{}}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOpts = append(awsOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsOpts = append(awsOpts, o.awsConfig...)

		awsCfg, err := config.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Archiver{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		clock:   o.clock,
	}, nil
}

// Key returns the object key for an event received at t.
func (a *S3Archiver) Key(provider string, e webhook.Event, t time.Time) string {
	t = t.UTC()
	return path.Join(a.prefix, provider, t.Format("2006"), t.Format("01"), t.Format("02"), e.ID+".json")
}

// Archive writes the raw payload of e. Redelivered events overwrite the
// same object.
func (a *S3Archiver) Archive(ctx context.Context, provider string, e webhook.Event) error {
	if e.ID == "" {
		return ErrMissingEventID
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(provider, e, a.clock.Now())),
		Body:        bytes.NewReader(e.Raw),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"kind":          string(e.Kind),
			"provider-kind": e.ProviderKind,
		},
	})
	return classifyS3Error(err)
}

func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return errors.Join(ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errors.Join(ErrBucketNotFound, err)
		case "AccessDenied":
			return errors.Join(ErrAccessDenied, err)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return errors.Join(ErrUnavailable, err)
		}
	}
	return errors.Join(ErrWriteFailed, err)
}
