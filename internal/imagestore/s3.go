package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of *s3.Client the store needs. Tests pass a mock.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads images to one bucket. Objects must be publicly readable
// through PublicURL (a bucket policy or a CDN in front of it).
type S3Store struct {
	client    PutObjectAPI
	bucket    string
	publicURL string
}

// NewS3Store loads AWS credentials the default way (env, shared config,
// instance role). An empty publicURL means the virtual-hosted bucket URL.
func NewS3Store(ctx context.Context, bucket, region, publicURL string) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("imagestore: loading AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), bucket, publicURL), nil
}

func NewS3StoreWithClient(client PutObjectAPI, bucket, publicURL string) *S3Store {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *S3Store) Save(ctx context.Context, img *Image) (string, error) {
	key := objectKey(img)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("imagestore: uploading %s to s3://%s: %w", key, s.bucket, err)
	}
	return s.publicURL + "/" + key, nil
}
