package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	// Endpoint overrides the AWS endpoint, e.g. a local MinIO. Empty means
	// the real S3 service.
	Endpoint      string
	DefaultRegion string
	UseSSL        bool
}

// Object is one fetched origin object. ContentType is empty when the bucket
// stored none.
type Object struct {
	ContentType string
	Body        []byte
}

// Client reads origin objects from S3. Region-scoped clients are created
// lazily and reused across invocations; they hold no request state.
type Client struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*minio.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		clients: make(map[string]*minio.Client),
	}
}

// FetchObject retrieves one object and drains its body fully.
func (c *Client) FetchObject(ctx context.Context, bucket, region, key string) (Object, error) {
	if strings.TrimSpace(bucket) == "" {
		return Object{}, errors.New("bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return Object{}, errors.New("object key is required")
	}

	mc, err := c.clientForRegion(region)
	if err != nil {
		return Object{}, err
	}

	obj, err := mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	body, err := io.ReadAll(obj)
	if err != nil {
		return Object{}, fmt.Errorf("read object %s: %w", key, err)
	}

	return Object{ContentType: info.ContentType, Body: body}, nil
}

func (c *Client) clientForRegion(region string) (*minio.Client, error) {
	if region == "" {
		region = c.cfg.DefaultRegion
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if mc, ok := c.clients[region]; ok {
		return mc, nil
	}

	endpoint := strings.TrimSpace(c.cfg.Endpoint)
	secure := c.cfg.UseSSL
	if endpoint == "" {
		endpoint = awsEndpoint(region)
		secure = true
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client for region %q: %w", region, err)
	}

	c.clients[region] = mc
	return mc, nil
}

func awsEndpoint(region string) string {
	if region == "" {
		return "s3.amazonaws.com"
	}
	return fmt.Sprintf("s3.%s.amazonaws.com", region)
}
