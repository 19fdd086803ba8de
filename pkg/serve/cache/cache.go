// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cache wraps a ristretto/v2 in-memory cache around a repository's
// loose-object reads, keyed by (ownerID, repoName, oid). Ristretto has no
// prefix-delete primitive, so a secondary per-repository index of the keys
// it has admitted is kept alongside it, letting a push invalidate every
// cached object for a repository in one pass instead of waiting out TTLs.
package cache

import (
	"fmt"
	"io"
	"sync"

	"github.com/antgroup/vaultgit/modules/git/gitobj/storage"
	"github.com/dgraph-io/ristretto/v2"
)

// ObjectCache caches decoded loose-object bytes across repositories.
type ObjectCache struct {
	c *ristretto.Cache[string, []byte]

	mu    sync.Mutex
	index map[string]map[string]struct{} // repoKey -> set of cache keys
}

// New builds an ObjectCache sized the same way pkg/serve/config.go's Cache
// section configures the rest of the server's caches.
func New(numCounters, maxCost, bufferItems int64) (*ObjectCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: numCounters,
		MaxCost:     maxCost << 20,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: new ristretto cache: %w", err)
	}
	return &ObjectCache{c: c, index: make(map[string]map[string]struct{})}, nil
}

func key(repoKey, oid string) string {
	return repoKey + "/" + oid
}

// Get returns a cached object's bytes, if present.
func (oc *ObjectCache) Get(repoKey, oid string) ([]byte, bool) {
	return oc.c.Get(key(repoKey, oid))
}

// Set admits an object's bytes into the cache, recording it in repoKey's
// secondary index so InvalidateRepo can find it later.
func (oc *ObjectCache) Set(repoKey, oid string, data []byte) {
	k := key(repoKey, oid)
	if !oc.c.Set(k, data, int64(len(data))) {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	keys, ok := oc.index[repoKey]
	if !ok {
		keys = make(map[string]struct{})
		oc.index[repoKey] = keys
	}
	keys[k] = struct{}{}
}

// InvalidateRepo evicts every object cached for repoKey — called after a
// receive-pack applies ref updates, since the set of reachable objects (and
// therefore what a future read should trust as live) may have changed.
func (oc *ObjectCache) InvalidateRepo(repoKey string) {
	oc.mu.Lock()
	keys := oc.index[repoKey]
	delete(oc.index, repoKey)
	oc.mu.Unlock()
	for k := range keys {
		oc.c.Del(k)
	}
}

// Close releases the underlying ristretto cache's background goroutines.
func (oc *ObjectCache) Close() {
	oc.c.Close()
}

// Backend wraps a storage.Backend with a read-through ObjectCache scoped to
// repoKey (typically repofs.Root's "repos/<ownerID>/<repoName>").
type Backend struct {
	inner   storage.Backend
	cache   *ObjectCache
	repoKey string
}

// Wrap returns a storage.Backend that serves Open calls out of cache when
// possible and populates the cache on both cache misses and writes.
func Wrap(inner storage.Backend, cache *ObjectCache, repoKey string) *Backend {
	return &Backend{inner: inner, cache: cache, repoKey: repoKey}
}

func (b *Backend) Storage() (storage.Storage, storage.WritableStorage) {
	ro, rw := b.inner.Storage()
	cs := &cachingStorage{ro: ro, rw: rw, cache: b.cache, repoKey: b.repoKey}
	return cs, cs
}

type cachingStorage struct {
	ro      storage.Storage
	rw      storage.WritableStorage
	cache   *ObjectCache
	repoKey string
}

func (cs *cachingStorage) Open(oid []byte) (io.ReadCloser, error) {
	hex := fmt.Sprintf("%x", oid)
	if data, ok := cs.cache.Get(cs.repoKey, hex); ok {
		return io.NopCloser(newByteReader(data)), nil
	}
	rc, err := cs.ro.Open(oid)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, err
	}
	cs.cache.Set(cs.repoKey, hex, data)
	return io.NopCloser(newByteReader(data)), nil
}

func (cs *cachingStorage) Store(oid []byte, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	n, err := cs.rw.Store(oid, newByteReader(data))
	if err != nil {
		return n, err
	}
	cs.cache.Set(cs.repoKey, fmt.Sprintf("%x", oid), data)
	return n, nil
}

func (cs *cachingStorage) Close() error {
	if err := cs.ro.Close(); err != nil {
		return err
	}
	return cs.rw.Close()
}

func (cs *cachingStorage) IsCompressed() bool {
	return cs.ro.IsCompressed()
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (b *byteReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
