package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the manifest in an S3 object.
type S3Store struct {
	client S3API
	bucket string
	key    string
}

// NewS3Store returns a store for s3://bucket/key.
func NewS3Store(client S3API, bucket, key string) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key}
}

// Location returns the s3:// URL of the object.
func (s *S3Store) Location() string {
	return "s3://" + s.bucket + "/" + s.key
}

// Load fetches and decodes the manifest object.
func (s *S3Store) Load(ctx context.Context) (*Manifest, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Location())
		}
		return nil, fmt.Errorf("s3 get %s: %w", s.Location(), err)
	}
	defer out.Body.Close()

	m, err := Read(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Location(), err)
	}
	return m, nil
}

// Save encodes and uploads the manifest object.
func (s *S3Store) Save(ctx context.Context, m *Manifest) error {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", s.Location(), err)
	}
	return nil
}

// ParseS3URL splits "s3://bucket/key" into its bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%q is not an s3:// URL", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%q must name a bucket and an object key", raw)
	}
	return u.Host, key, nil
}

// S3Option configures NewS3Client.
type S3Option func(*s3.Options)

// WithRegion sets the AWS region.
func WithRegion(region string) S3Option {
	return func(o *s3.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

// WithEndpoint points the client at an S3-compatible endpoint and enables
// path-style addressing.
func WithEndpoint(endpoint string) S3Option {
	return func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}
}

// WithCredentials overrides the credentials provider.
func WithCredentials(p aws.CredentialsProvider) S3Option {
	return func(o *s3.Options) {
		if p != nil {
			o.Credentials = p
		}
	}
}

// NewS3Client returns an S3 client configured from the standard AWS
// environment variables (AWS_REGION, AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN, AWS_ENDPOINT_URL_S3) and opts.
func NewS3Client(opts ...S3Option) *s3.Client {
	o := s3.Options{
		Region:      firstEnv("AWS_REGION", "AWS_DEFAULT_REGION"),
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
	WithEndpoint(firstEnv("AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL"))(&o)
	for _, opt := range opts {
		opt(&o)
	}
	return s3.New(o)
}

var errNoEnvCredentials = errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")

func envCredentials(ctx context.Context) (aws.Credentials, error) {
	id := firstEnv("AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY")
	secret := firstEnv("AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errNoEnvCredentials
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
