package utils

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"momentum/config"
)

// Presigner issues time-limited upload URLs for objects.
type Presigner interface {
	PresignUpload(ctx context.Context, key string, expiry time.Duration) (uploadURL, publicURL string, err error)
}

type S3Presigner struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewS3Presigner(cfg config.StorageConfig) (*S3Presigner, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	public := cfg.PublicURL
	if public == "" {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &S3Presigner{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(public, "/")}, nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context, key string, expiry time.Duration) (string, string, error) {
	u, err := p.client.PresignedPutObject(ctx, p.bucket, key, expiry)
	if err != nil {
		return "", "", err
	}
	return u.String(), p.publicURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}
