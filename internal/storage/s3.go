package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/lunaria/gallery-backend/internal/config"
)

// S3Provider stores blobs in an S3-compatible bucket.
type S3Provider struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Provider(cfg *config.Config) (*S3Provider, error) {
	client, err := buildClient(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretAccessKey, cfg.S3UsePathStyle)
	if err != nil {
		return nil, err
	}

	publicURL := strings.TrimRight(cfg.S3PublicURL, "/")
	if publicURL == "" && cfg.S3Endpoint != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.S3Endpoint, "/"), cfg.S3Bucket)
	}

	return &S3Provider{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: publicURL,
	}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

func (p *S3Provider) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	uploader := manager.NewUploader(p.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &p.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		ACL:         s3types.ObjectCannedACLPublicRead,
	}, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 })
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return key, nil
}

func (p *S3Provider) UploadBatch(ctx context.Context, items []Item) ([]string, error) {
	paths := make([]string, 0, len(items))
	for _, item := range items {
		path, err := p.Upload(ctx, item.Data, item.Key, item.ContentType)
		if err != nil {
			return nil, fmt.Errorf("batch upload failed at %s: %w", item.Key, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (p *S3Provider) PublicURL(key string) string {
	// keys are uuid-based path segments, safe to join directly
	return p.publicURL + "/" + strings.TrimLeft(key, "/")
}

// Delete removes the object. S3 DeleteObject succeeds for missing
// keys, which matches the idempotent delete contract.
func (p *S3Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &p.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

func (p *S3Provider) Type() string { return "s3" }
