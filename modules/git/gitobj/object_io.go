package gitobj

import (
	"bufio"
	"fmt"
	"hash"
	"io"
	"strconv"

	"github.com/antgroup/vaultgit/modules/streamio"
)

// ObjectReader reads the header and body of a single loose Git object
// stream: "<type> <size>\x00<contents>", optionally zlib-deflated.
type ObjectReader struct {
	src io.ReadCloser
	br  *bufio.Reader
	zr  *streamio.ZlibReader

	typ  ObjectType
	size int64
	read bool
}

// NewObjectReadCloser wraps f, a zlib-compressed loose object stream, as
// read directly off of the storage backend.
func NewObjectReadCloser(f io.ReadCloser) (*ObjectReader, error) {
	zr, err := streamio.GetZlibReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &ObjectReader{src: f, zr: zr, br: bufio.NewReader(zr)}, nil
}

// NewUncompressedObjectReadCloser wraps f, an already-inflated loose object
// stream, as produced when reconstructing a delta base while unpacking a
// packfile.
func NewUncompressedObjectReadCloser(f io.ReadCloser) (*ObjectReader, error) {
	return &ObjectReader{src: f, br: bufio.NewReader(f)}, nil
}

// Header parses and returns the object's type and declared body size. It is
// idempotent; subsequent calls return the values parsed by the first.
func (r *ObjectReader) Header() (ObjectType, int64, error) {
	if r.read {
		return r.typ, r.size, nil
	}

	typ, err := r.br.ReadString(' ')
	if err != nil {
		return "", 0, fmt.Errorf("git/object: could not read object type: %w", err)
	}
	typ = typ[:len(typ)-1]

	sizeText, err := r.br.ReadString(0x00)
	if err != nil {
		return "", 0, fmt.Errorf("git/object: could not read object size: %w", err)
	}
	sizeText = sizeText[:len(sizeText)-1]

	size, err := strconv.ParseInt(sizeText, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("git/object: invalid object size %q: %w", sizeText, err)
	}

	r.typ = ObjectTypeFromString(typ)
	r.size = size
	r.read = true

	return r.typ, r.size, nil
}

// Read implements io.Reader over the object's body. Header must be called
// first.
func (r *ObjectReader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Close releases the underlying zlib reader, if any, back to its pool and
// closes the underlying stream.
func (r *ObjectReader) Close() error {
	if r.zr != nil {
		streamio.PutZlibReader(r.zr)
	}
	return r.src.Close()
}

// ObjectWriter zlib-compresses a loose object header and body to an
// underlying io.Writer while simultaneously hashing the uncompressed bytes,
// so that Sha returns the object's canonical OID once writing is complete.
type ObjectWriter struct {
	zw *streamio.ZlibWriter
	h  hash.Hash
	mw io.Writer
}

// NewObjectWriter constructs an *ObjectWriter which deflates what is written
// to it into w, while hashing the uncompressed stream with h.
func NewObjectWriter(w io.Writer, h hash.Hash) *ObjectWriter {
	zw := streamio.GetZlibWriter(w)
	return &ObjectWriter{
		zw: zw,
		h:  h,
		mw: io.MultiWriter(h, zw),
	}
}

// WriteHeader writes the loose object header "<type> <size>\x00".
func (w *ObjectWriter) WriteHeader(typ ObjectType, size int64) (int, error) {
	return fmt.Fprintf(w.mw, "%s %d\x00", typ, size)
}

// Write implements io.Writer over the object's body.
func (w *ObjectWriter) Write(p []byte) (int, error) {
	return w.mw.Write(p)
}

// Close flushes and releases the underlying zlib writer back to its pool.
func (w *ObjectWriter) Close() error {
	streamio.PutZlibWriter(w.zw)
	return nil
}

// Sha returns the OID of everything written so far.
func (w *ObjectWriter) Sha() []byte {
	return w.h.Sum(nil)
}
