package objstore

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint  string
	accessKey string
	secretKey string
	useSSL    bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

type minioStore struct {
	cfg    *minioConfig
	client *minio.Client
}

// NewMinioStore builds a Store backed by an s3-compatible endpoint.
func NewMinioStore(opts ...MinioOpts) (Store, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize minio client")
	}

	return &minioStore{cfg: cfg, client: minioClient}, nil
}

func (s *minioStore) List(ctx context.Context, bucket, prefix string) <-chan ListEntry {
	entries := make(chan ListEntry)

	go func() {
		defer close(entries)

		objects := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		})
		for object := range objects {
			if object.Err != nil {
				entries <- ListEntry{Err: errors.Wrapf(object.Err, "failed to list bucket %s", bucket)}
				return
			}
			select {
			case entries <- ListEntry{Info: FileInfo{Key: object.Key, Size: object.Size, LastModified: object.LastModified}}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return entries
}

func (s *minioStore) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read object %s/%s", bucket, key)
	}

	// GetObject is lazy. Stat forces the first request so a missing key
	// fails here instead of on the first read.
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, errors.Wrapf(err, "failed to stat object %s/%s", bucket, key)
	}

	return object, nil
}

func (s *minioStore) Write(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	if _, err := s.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{}); err != nil {
		return errors.Wrapf(err, "failed to write object %s/%s", bucket, key)
	}
	return nil
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
