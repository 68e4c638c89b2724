package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ImageContentTypes are the upload types accepted for custom request images.
var ImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// objectPutter is the part of the S3 client the service uses.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Service struct {
	client objectPutter
	bucket string
	region string
}

func NewS3Service(ctx context.Context, bucket, region, accessKeyID, secretAccessKey string) (*S3Service, error) {
	if bucket == "" {
		return nil, errors.New("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return &S3Service{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// ObjectKey builds the key an image is stored under: custom/<owner>/<uuid><ext>.
func ObjectKey(owner, originalFilename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = ImageContentTypes[contentType]
	}
	owner = strings.Trim(strings.ReplaceAll(owner, "/", "_"), " ")
	if owner == "" {
		owner = "anonymous"
	}
	return "custom/" + owner + "/" + uuid.New().String() + ext
}

// Upload stores an image for owner and returns the object key and its public URL.
func (s *S3Service) Upload(ctx context.Context, owner, originalFilename string, body io.Reader, contentType string) (key, url string, err error) {
	key = ObjectKey(owner, originalFilename, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", errors.Wrap(err, "put object")
	}
	return key, s.ObjectURL(key), nil
}

// Delete removes the object from S3.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, "delete object")
}

// KeyFromRef returns the object key behind ref, which is either a key or an
// ObjectURL produced by this service. Only keys under custom/ are ours.
func (s *S3Service) KeyFromRef(ref string) (string, bool) {
	key := strings.TrimPrefix(ref, s.ObjectURL(""))
	if !strings.HasPrefix(key, "custom/") || strings.Contains(key, "://") {
		return "", false
	}
	return key, true
}

// ObjectURL is the virtual-hosted style URL of key. The bucket policy decides
// whether it is publicly readable.
func (s *S3Service) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
