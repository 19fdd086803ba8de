// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package repofs lays out bare repositories on an object store under
// repos/<ownerId>/<repoName>/, the same directory shape `git init --bare`
// produces on local disk: HEAD, config, description, refs/heads, refs/tags,
// objects/<oid[0:2]>/<oid[2:]> and objects/pack. It implements
// gitobj/storage.Backend so a *gitobj.Database can read and write loose
// objects straight through to the blob store.
package repofs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/antgroup/vaultgit/modules/git/gitobj/errors"
	"github.com/antgroup/vaultgit/modules/git/gitobj/storage"
	"github.com/antgroup/vaultgit/pkg/serve/blobstore"
)

const (
	objectsDir     = "objects"
	packDir        = "objects/pack"
	refsHeadsDir   = "refs/heads"
	refsTagsDir    = "refs/tags"
	headFile       = "HEAD"
	configFile     = "config"
	descriptionKey = "description"
)

// Root returns the blob-store key prefix for a repository, e.g.
// "repos/42/vault-core".
func Root(ownerID int64, repoName string) string {
	return fmt.Sprintf("repos/%d/%s", ownerID, repoName)
}

func looseObjectKey(root string, oid string) string {
	return path.Join(root, objectsDir, oid[0:2], oid[2:])
}

func packKey(root, name string) string {
	return path.Join(root, packDir, name)
}

// FS is the repository-scoped view of the blob store: one instance per
// (ownerID, repoName) pair, handed to a gitobj.Database as its storage
// backend and used directly for ref/HEAD/config/pack access.
type FS struct {
	store    blobstore.Store
	root     string
	ownerID  int64
	repoName string
}

// New returns the filesystem adapter rooted at repos/<ownerID>/<repoName>/
// in store.
func New(store blobstore.Store, ownerID int64, repoName string) *FS {
	return &FS{store: store, root: Root(ownerID, repoName), ownerID: ownerID, repoName: repoName}
}

func (fs *FS) Root() string     { return fs.root }
func (fs *FS) OwnerID() int64   { return fs.ownerID }
func (fs *FS) RepoName() string { return fs.repoName }

// Exists reports whether the repository has been initialized (HEAD present).
func (fs *FS) Exists(ctx context.Context) (bool, error) {
	_, err := fs.store.Stat(ctx, path.Join(fs.root, headFile))
	if err == nil {
		return true, nil
	}
	if errors2IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Init creates the empty repository skeleton: HEAD pointing at
// refs/heads/<defaultBranch>, a minimal bare config, and a description.
func (fs *FS) Init(ctx context.Context, defaultBranch string) error {
	if defaultBranch == "" {
		defaultBranch = "main"
	}
	head := fmt.Sprintf("ref: refs/heads/%s\n", defaultBranch)
	if err := fs.store.Put(ctx, path.Join(fs.root, headFile), strings.NewReader(head), int64(len(head))); err != nil {
		return fmt.Errorf("repofs: init HEAD: %w", err)
	}
	cfg := "[core]\n\trepositoryformatversion = 0\n\tbare = true\n"
	if err := fs.store.Put(ctx, path.Join(fs.root, configFile), strings.NewReader(cfg), int64(len(cfg))); err != nil {
		return fmt.Errorf("repofs: init config: %w", err)
	}
	return nil
}

// ReadHead returns the raw contents of HEAD (either "ref: refs/heads/x\n"
// or a bare 40-hex oid).
func (fs *FS) ReadHead(ctx context.Context) (string, error) {
	return fs.readText(ctx, headFile)
}

// WriteHead rewrites HEAD to point at the given target (a full reference
// name, e.g. "refs/heads/main").
func (fs *FS) WriteHead(ctx context.Context, target string) error {
	content := fmt.Sprintf("ref: %s\n", target)
	return fs.store.Put(ctx, path.Join(fs.root, headFile), strings.NewReader(content), int64(len(content)))
}

func (fs *FS) readText(ctx context.Context, key string) (string, error) {
	rc, err := fs.store.Get(ctx, path.Join(fs.root, key))
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\n")) + "\n", nil
}

// RefPath returns the blob-store key for a loose ref file, e.g.
// "repos/1/demo/refs/heads/main".
func (fs *FS) RefPath(name string) string {
	return path.Join(fs.root, name)
}

// ReadRef returns the 40-hex oid stored at a loose ref path, or
// plumbing ErrReferenceNotFound-compatible error if absent.
func (fs *FS) ReadRef(ctx context.Context, name string) (string, error) {
	rc, err := fs.store.Get(ctx, fs.RefPath(name))
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// WriteRef atomically sets a loose ref to oid.
func (fs *FS) WriteRef(ctx context.Context, name, oid string) error {
	content := oid + "\n"
	return fs.store.Put(ctx, fs.RefPath(name), strings.NewReader(content), int64(len(content)))
}

// DeleteRef removes a loose ref.
func (fs *FS) DeleteRef(ctx context.Context, name string) error {
	return fs.store.Delete(ctx, fs.RefPath(name))
}

// ListRefs enumerates loose refs under "refs/heads" or "refs/tags".
func (fs *FS) ListRefs(ctx context.Context, prefix string) ([]string, error) {
	keys, err := fs.store.List(ctx, path.Join(fs.root, prefix)+"/")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	base := fs.root + "/"
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, base))
	}
	return names, nil
}

// PutPack stores an uploaded packfile and its companion index under
// objects/pack/.
func (fs *FS) PutPack(ctx context.Context, name string, r io.Reader, size int64) error {
	return fs.store.Put(ctx, packKey(fs.root, name), r, size)
}

// ListPacks returns the names of stored packfiles (".pack" suffix only).
func (fs *FS) ListPacks(ctx context.Context) ([]string, error) {
	keys, err := fs.store.List(ctx, packKey(fs.root, ""))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(k, ".pack") {
			names = append(names, path.Base(k))
		}
	}
	return names, nil
}

// OpenPack returns a reader over a stored packfile.
func (fs *FS) OpenPack(ctx context.Context, name string) (io.ReadCloser, error) {
	return fs.store.Get(ctx, packKey(fs.root, name))
}

// looseStorage is the gitobj/storage.Storage and WritableStorage
// implementation over fs's blob store, reading/writing loose objects at
// objects/<oid[0:2]>/<oid[2:]>.
type looseStorage struct {
	ctx context.Context
	fs  *FS
}

var (
	_ storage.Storage         = (*looseStorage)(nil)
	_ storage.WritableStorage = (*looseStorage)(nil)
	_ storage.Backend         = (*FS)(nil)
)

// Storage implements storage.Backend, returning the same loose-object view
// for both reads and writes.
func (fs *FS) Storage() (storage.Storage, storage.WritableStorage) {
	ls := &looseStorage{ctx: context.Background(), fs: fs}
	return ls, ls
}

// WithContext returns a backend bound to ctx, so blob-store round trips
// made on behalf of a gitobj.Database carry request cancellation/timeouts.
func (fs *FS) WithContext(ctx context.Context) storage.Backend {
	return &ctxFS{FS: fs, ctx: ctx}
}

type ctxFS struct {
	*FS
	ctx context.Context
}

func (c *ctxFS) Storage() (storage.Storage, storage.WritableStorage) {
	ls := &looseStorage{ctx: c.ctx, fs: c.FS}
	return ls, ls
}

func (l *looseStorage) Open(oid []byte) (io.ReadCloser, error) {
	key := looseObjectKey(l.fs.root, fmt.Sprintf("%x", oid))
	rc, err := l.fs.store.Get(l.ctx, key)
	if err != nil {
		if errors2IsNotExist(err) {
			return nil, errors.NoSuchObject(oid)
		}
		return nil, err
	}
	return rc, nil
}

func (l *looseStorage) Store(oid []byte, r io.Reader) (int64, error) {
	key := looseObjectKey(l.fs.root, fmt.Sprintf("%x", oid))
	if _, err := l.fs.store.Stat(l.ctx, key); err == nil {
		// Loose objects are content-addressed: once written, never
		// rewritten. Drain r so callers that assume a full write
		// don't see a short read.
		n, _ := io.Copy(io.Discard, r)
		return n, nil
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	if err := l.fs.store.Put(l.ctx, key, &buf, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (l *looseStorage) Close() error { return nil }

// IsCompressed reports that loose objects handed back by Open are the raw
// zlib stream gitobj itself wraps/unwraps, not pre-inflated by the store.
func (l *looseStorage) IsCompressed() bool { return true }

func errors2IsNotExist(err error) bool {
	return blobstore.IsNotExist(err)
}
