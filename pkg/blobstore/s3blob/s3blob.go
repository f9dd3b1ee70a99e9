// Package s3blob is an S3-compatible blobstore.Store backed by
// github.com/minio/minio-go/v7, the same client reva uses to talk to
// S3-compatible object storage from its own storage drivers.
package s3blob

import (
	"bytes"
	"context"
	"io"

	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

func init() {
	blobstore.Register("s3", New)
}

type config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Store roots a blobstore.Store at a bucket in an S3-compatible object
// store. Keys are used verbatim as object names.
type Store struct {
	client *minio.Client
	bucket string
}

// New builds an S3-backed store from the endpoint/bucket/credentials
// config map, mirroring reva's user/manager/kapi parseConfig pattern of
// mapstructure.Decode into a typed config struct.
func New(m map[string]interface{}) (blobstore.Store, error) {
	var c config
	if err := mapstructure.Decode(m, &c); err != nil {
		return nil, errors.Wrap(err, "s3blob: error decoding config")
	}
	if c.Endpoint == "" || c.Bucket == "" {
		return nil, errors.New("s3blob: endpoint and bucket are required")
	}
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "s3blob: could not create client")
	}
	return &Store{client: client, bucket: c.Bucket}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "s3blob: list %q", prefix)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return false, nil
		}
		return false, errors.Wrapf(err, "s3blob: stat %q", key)
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "s3blob: get %q", key)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "s3blob: read %q", key)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "s3blob: put %q", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	existed, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, errors.Wrapf(err, "s3blob: delete %q", key)
	}
	return true, nil
}

func (s *Store) Move(ctx context.Context, src, dst string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucket, Object: src},
	)
	if err != nil {
		return errors.Wrapf(err, "s3blob: copy %q -> %q", src, dst)
	}
	if _, err := s.Delete(ctx, src); err != nil {
		return errors.Wrapf(err, "s3blob: remove source %q after copy", src)
	}
	return nil
}

var _ blobstore.Store = (*Store)(nil)
