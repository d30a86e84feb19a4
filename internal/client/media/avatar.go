// Package media uploads and removes profile pictures in S3-compatible object
// storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophmeet/internal/client/config"
	"github.com/google/uuid"
)

// ErrNoObjectStorage is returned when no bucket is configured.
var ErrNoObjectStorage = errors.New("object storage is not configured")

// seams for tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// ErrForeignAvatar is returned when an avatar to delete is not stored under
// its owner's prefix.
var ErrForeignAvatar = errors.New("avatar does not belong to this user")

// AvatarUploader stores avatars under profiles/<uid>/ in one bucket.
type AvatarUploader struct {
	region    string
	bucket    string
	endpoint  string
	accessKey string
	secretKey string
}

func NewAvatarUploader(cfg *config.Config) *AvatarUploader {
	return &AvatarUploader{
		region:    cfg.S3Region,
		bucket:    cfg.S3Bucket,
		endpoint:  strings.TrimRight(cfg.S3BaseEndpoint, "/"),
		accessKey: cfg.S3AccessKey,
		secretKey: cfg.S3SecretKey,
	}
}

func (u *AvatarUploader) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(u.region)}
	if u.accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.accessKey, u.secretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.endpoint != "" {
			o.BaseEndpoint = aws.String(u.endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// ObjectKey returns a fresh key for a new avatar of uid.
func ObjectKey(uid string) string {
	return fmt.Sprintf("profiles/%s/avatar-%s", uid, uuid.NewString())
}

// URL returns the public address of key.
func (u *AvatarUploader) URL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// Upload stores body as a new avatar of uid and returns its URL.
func (u *AvatarUploader) Upload(ctx context.Context, uid string, body io.Reader, contentType string) (string, error) {
	if u.bucket == "" {
		return "", ErrNoObjectStorage
	}
	if uid == "" {
		return "", errors.New("avatar owner is empty")
	}

	c, err := u.client(ctx)
	if err != nil {
		return "", err
	}

	key := ObjectKey(uid)
	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := putObject(c, ctx, in); err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}
	return u.URL(key), nil
}

// ObjectKeyFor resolves ref, a URL returned by Upload or a bare object key,
// to the key of an avatar of uid.
func (u *AvatarUploader) ObjectKeyFor(uid, ref string) (string, error) {
	key := strings.TrimPrefix(ref, u.URL(""))
	key = strings.TrimPrefix(key, "/")
	prefix := fmt.Sprintf("profiles/%s/", uid)
	if uid == "" || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || strings.Contains(key, "..") {
		return "", ErrForeignAvatar
	}
	return key, nil
}

// Delete removes the avatar ref of uid from the bucket.
func (u *AvatarUploader) Delete(ctx context.Context, uid, ref string) error {
	if u.bucket == "" {
		return ErrNoObjectStorage
	}
	key, err := u.ObjectKeyFor(uid, ref)
	if err != nil {
		return err
	}

	c, err := u.client(ctx)
	if err != nil {
		return err
	}
	in := &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}
	if _, err := deleteObject(c, ctx, in); err != nil {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}
