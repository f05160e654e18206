package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// multipartThreshold and partSize are both fixed at 25 MiB: anything
// larger than this is uploaded with the multipart manager, and each part
// is sized the same.
const (
	multipartThreshold = 25 * 1024 * 1024
	partSize           = 25 * 1024 * 1024
	maxRetries         = 3
)

// Metadata accompanies every uploaded object.
type Metadata struct {
	Stream     string
	Session    string
	RecordedAt string // ISO-8601 UTC
}

// Client puts local files into an S3-compatible bucket.
type Client struct {
	bucket   string
	s3       *s3.S3
	uploader *s3manager.Uploader
}

// Config describes how to reach the object store. Endpoint, AccessKey,
// and SecretKey are required; a non-AWS endpoint needs ForcePathStyle
// (virtual-hosted-style bucket addressing does not resolve against most
// self-hosted S3-compatible stores).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseTLS    bool
	VerifyTLS bool
}

// New builds a Client, constructing the underlying AWS session with an
// adaptive retry policy at the transport layer (up to maxRetries
// attempts) and path-style addressing, since the target is typically a
// self-hosted S3-compatible store rather than AWS itself.
func New(cfg Config) (*Client, error) {
	scheme := "https"
	if !cfg.UseTLS {
		scheme = "http"
	}

	endpoint := fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	if cfg.Endpoint == "" {
		endpoint = ""
	}

	awsConfig := aws.NewConfig().
		WithRegion(cfg.Region).
		WithEndpoint(endpoint).
		WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")).
		WithS3ForcePathStyle(true).
		WithMaxRetries(maxRetries).
		WithDisableSSL(!cfg.UseTLS)

	sess, err := session.NewSessionWithOptions(session.Options{Config: *awsConfig})
	if err != nil {
		return nil, fmt.Errorf("objectstore: new session: %w", err)
	}

	svc := s3.New(sess)
	uploader := s3manager.NewUploaderWithClient(svc, func(u *s3manager.Uploader) {
		u.PartSize = partSize
	})

	return &Client{bucket: cfg.Bucket, s3: svc, uploader: uploader}, nil
}

// Put uploads the file at localPath to objectKey, attaching meta as
// object metadata. Files at or above multipartThreshold go through the
// multipart uploader; smaller files use a single PutObject call.
func (c *Client) Put(ctx context.Context, localPath, objectKey string, meta Metadata) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrPut, localPath, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrPut, localPath, err)
	}
	defer f.Close()

	metaMap := map[string]*string{
		"stream":      aws.String(meta.Stream),
		"session":     aws.String(meta.Session),
		"recorded_at": aws.String(meta.RecordedAt),
	}

	if info.Size() >= multipartThreshold {
		_, err = c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:   aws.String(c.bucket),
			Key:      aws.String(objectKey),
			Body:     f,
			Metadata: metaMap,
		})
	} else {
		_, err = c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:   aws.String(c.bucket),
			Key:      aws.String(objectKey),
			Body:     f,
			Metadata: metaMap,
		})
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPut, objectKey, classifyAWSErr(err))
	}

	return nil
}

func classifyAWSErr(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return fmt.Errorf("%s: %s", aerr.Code(), aerr.Message())
	}

	return err
}
