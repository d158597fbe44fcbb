package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
)

// MaxAvatarBytes caps uploaded profile pictures at 5 MiB.
const MaxAvatarBytes = 5 << 20

// Options configures the S3-backed avatar store.
type Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	PublicURL    string
	UsePathStyle bool
}

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// AvatarStore persists profile pictures in an S3 (or S3-compatible) bucket
// under `<user_id>/avatar.<ext>`.
type AvatarStore struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewAvatarStore builds an AvatarStore from ambient AWS configuration.
func NewAvatarStore(ctx context.Context, opts Options) (*AvatarStore, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: bucket is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	s3Opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Region != "" {
		s3Opts.Region = opts.Region
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = &opts.Endpoint
	}

	return newAvatarStore(s3.New(s3Opts), opts), nil
}

func newAvatarStore(client s3API, opts Options) *AvatarStore {
	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		region := opts.Region
		if region == "" {
			region = "us-east-1"
		}
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
	}
	return &AvatarStore{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: publicURL,
	}
}

// Upload stores the avatar and returns its public URL. The content type must
// be an image type and size must not exceed MaxAvatarBytes.
func (s *AvatarStore) Upload(ctx context.Context, userID, filename, contentType string, size int64, body io.Reader) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("storage: user id is required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperrors.NewBadRequest("profile picture must be an image")
	}
	if size <= 0 || size > MaxAvatarBytes {
		return "", apperrors.NewBadRequest("profile picture must be between 1 byte and 5 MB")
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = extensionForContentType(contentType)
	}
	key := userID + "/avatar" + ext

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          body,
		ContentType:   &contentType,
		ContentLength: &size,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload avatar: %w", err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete removes the stored avatar for the given object key suffix.
func (s *AvatarStore) Delete(ctx context.Context, userID, ext string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("storage: user id is required")
	}

	key := userID + "/avatar" + strings.ToLower(ext)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("storage: delete avatar: %w", err)
	}
	return nil
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
