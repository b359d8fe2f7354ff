package artifacts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads artifacts to an S3 bucket under audio/.
type S3Store struct {
	client S3API
	bucket string
}

// NewS3Store creates an S3-backed artifact store.
func NewS3Store(client S3API, bucket string) *S3Store {
	if client == nil {
		panic("artifacts: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("artifacts: bucket required")
	}
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Put(ctx context.Context, data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".wav"
	}
	key := "audio/" + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("artifacts: s3 put: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func contentType(ext string) string {
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
