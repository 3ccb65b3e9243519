// Package s3 provides an S3-compatible blob store and presigned-post
// credential issuer for the asset ingestion pipeline.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tendant/simple-asset/pkg/simpleasset"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// Presigned-post constraints for direct uploads
	PresignExpirySeconds int   // Credential lifetime in seconds (default: 300)
	MaxContentLength     int64 // Upper bound of the content-length-range condition (default: 10524288)
}

// Store is an S3-compatible implementation of simpleasset.BlobStore and
// simpleasset.CredentialIssuer.
type Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
	maxContentLen int64
}

// New creates a new S3-compatible blob store
func New(config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.PresignExpirySeconds <= 0 {
		config.PresignExpirySeconds = 300
	}
	if config.MaxContentLength <= 0 {
		config.MaxContentLength = 10524288
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        config.Bucket,
		presignExpiry: time.Duration(config.PresignExpirySeconds) * time.Second,
		maxContentLen: config.MaxContentLength,
	}, nil
}

// ReadFileToBuffer reads the full object under key into memory
func (s *Store) ReadFileToBuffer(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", simpleasset.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// WriteFileFromBuffer writes data under key and returns the stored key
func (s *Store) WriteFileFromBuffer(ctx context.Context, key string, data []byte) (string, error) {
	uploader := manager.NewUploader(s.client)

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

// FileExists reports whether an object exists under key
func (s *Store) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// CreatePresignedPost issues a presigned-post credential scoped to exactly
// key, with the configured expiry and content-length-range condition. The
// returned payload is meant to be forwarded to the client verbatim.
func (s *Store) CreatePresignedPost(ctx context.Context, key string) (*simpleasset.PresignedCredential, error) {
	result, err := s.presignClient.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignPostOptions) {
		opts.Expires = s.presignExpiry
		opts.Conditions = []interface{}{
			[]interface{}{"content-length-range", 0, s.maxContentLen},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned post: %w", err)
	}

	return &simpleasset.PresignedCredential{
		URL:    result.URL,
		Fields: result.Values,
	}, nil
}

// Delete removes the object under key
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
