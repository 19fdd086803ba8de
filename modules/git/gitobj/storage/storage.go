// Package storage defines the interfaces a gitobj.Database reads and writes
// loose objects through, independent of what actually backs them (the local
// filesystem, an object-store-backed repository adapter, or an in-memory
// map used by tests).
package storage

import (
	"io"

	"github.com/antgroup/vaultgit/modules/streamio"
)

// Storage implements an interface for reading, but not writing, objects in
// an object database.
type Storage interface {
	// Open returns a handle on an existing object keyed by the given
	// object ID. It returns an error satisfying
	// gitobj/errors.IsNoSuchObject if no such object exists.
	Open(oid []byte) (io.ReadCloser, error)
	// Close closes the storage, after which no more operations are
	// allowed.
	Close() error
	// IsCompressed indicates whether data read from Open is
	// zlib-compressed.
	IsCompressed() bool
}

// WritableStorage is a Storage that objects can also be written to.
type WritableStorage interface {
	Storage

	// Store writes the contents of r to the location keyed by oid,
	// returning the number of bytes written.
	Store(oid []byte, r io.Reader) (int64, error)
}

// Backend produces the read-only and read-write Storage views that a
// gitobj.Database operates against. Most backends return the same
// underlying store for both; a backend fronted by a read-through cache or a
// set of alternates may not.
type Backend interface {
	Storage() (Storage, WritableStorage)
}

// decompressingReadCloser lazily inflates an underlying zlib stream so a
// Storage whose IsCompressed reports true can be composed with one that
// does not, e.g. inside MultiStorage.
type decompressingReadCloser struct {
	src io.ReadCloser
	zr  *streamio.ZlibReader
}

func newDecompressingReadCloser(f io.ReadCloser) (io.ReadCloser, error) {
	zr, err := streamio.GetZlibReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &decompressingReadCloser{src: f, zr: zr}, nil
}

func (d *decompressingReadCloser) Read(p []byte) (int, error) {
	return d.zr.Read(p)
}

func (d *decompressingReadCloser) Close() error {
	streamio.PutZlibReader(d.zr)
	return d.src.Close()
}
