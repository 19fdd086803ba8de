// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig names the bucket and credentials a GCSStore is built from.
type GCSConfig struct {
	Bucket          string
	CredentialsJSON []byte
}

// GCSStore persists repository state in a Google Cloud Storage bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
}

var _ Store = (*GCSStore)(nil)

// NewGCSStore builds a GCSStore from cfg. When cfg.CredentialsJSON is empty
// the client falls back to application-default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{bucket: client.Bucket(cfg.Bucket)}, nil
}

func (g *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return r, nil
}

func (g *GCSStore) Put(ctx context.Context, key string, r io.Reader, _ int64) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSStore) Stat(ctx context.Context, key string) (*Info, error) {
	attrs, err := g.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return &Info{Key: key, Size: attrs.Size, LastModified: attrs.Updated}, nil
}

func (g *GCSStore) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}
