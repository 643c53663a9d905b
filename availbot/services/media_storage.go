package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MediaStorage keeps profile media in an S3-compatible Spaces bucket and
// hands out the public URLs embedded in listing posts.
type MediaStorage struct {
	client    *s3.Client
	bucket    string
	region    string
	mediaRoot string
}

func NewMediaStorage(spacesKey, spacesSecret, region, bucket, mediaRoot string) (*MediaStorage, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load media storage config: %w", err)
	}

	return &MediaStorage{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		mediaRoot: strings.Trim(mediaRoot, "/"),
	}, nil
}

// Upload stores one media object for a user and returns its public URL.
func (m *MediaStorage) Upload(ctx context.Context, userID, filename, contentType string, body io.Reader) (string, error) {
	key := m.objectKey(userID, filename)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media %s: %w", key, err)
	}

	return m.PublicURL(key), nil
}

// DeleteAll removes every stored media object for a user.
func (m *MediaStorage) DeleteAll(ctx context.Context, userID string) error {
	prefix := m.objectKey(userID, "")

	listed, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return fmt.Errorf("failed to list media for %s: %w", userID, err)
	}

	for _, object := range listed.Contents {
		_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    object.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete media %s: %w", aws.ToString(object.Key), err)
		}
	}

	return nil
}

func (m *MediaStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", m.bucket, m.region, key)
}

func (m *MediaStorage) objectKey(userID, filename string) string {
	return path.Join(m.mediaRoot, userID, filename)
}
