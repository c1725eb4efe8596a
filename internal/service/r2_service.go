package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/autopost/configs"
)

// R2Service reads post media straight from the Cloudflare R2 bucket the
// authoring API uploads into.
type R2Service struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewR2Service(ctx context.Context, c cfg.Config) (*R2Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	endpoint := c.R2.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = c.R2.Endpoint != ""
	})

	return &R2Service{
		client:    client,
		bucket:    c.R2.BucketName,
		publicURL: strings.TrimSuffix(c.R2.PublicURL, "/"),
	}, nil
}

// ObjectKey maps a public media URL to its bucket key. It reports false for
// URLs outside the bucket's public domain.
func (r *R2Service) ObjectKey(rawURL string) (string, bool) {
	if r == nil || r.publicURL == "" {
		return "", false
	}
	key, ok := strings.CutPrefix(rawURL, r.publicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (r *R2Service) Download(ctx context.Context, key string) ([]byte, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get r2 object %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read r2 object %s: %w", key, err)
	}
	return body, aws.ToString(out.ContentType), nil
}
