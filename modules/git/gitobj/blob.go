package gitobj

import (
	"hash"
	"io"
)

// Blob represents a Git blob object, the contents of a single file.
type Blob struct {
	// Contents yields the contents of the blob. It may be read exactly
	// once; the caller is responsible for calling Close when finished.
	Contents io.Reader
	// Size is the length in bytes of the blob's contents.
	Size int64

	closeFn func() error
}

// Type implements Object.Type.
func (b *Blob) Type() ObjectType { return BlobObjectType }

// Decode implements Object.Decode. It does not read the blob's contents
// eagerly; Contents is an io.LimitReader over r bounded to size bytes, and
// must be drained (or Close called) before the underlying stream is reused.
func (b *Blob) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	lr := io.LimitReader(r, size)
	b.Contents = lr
	b.Size = size
	if c, ok := r.(io.Closer); ok {
		b.closeFn = c.Close
	}
	return int(size), nil
}

// Encode implements Object.Encode by copying the blob's contents verbatim.
func (b *Blob) Encode(w io.Writer) (int, error) {
	n, err := io.Copy(w, b.Contents)
	return int(n), err
}

// Close releases the underlying reader, if any. Safe to call multiple times.
func (b *Blob) Close() error {
	if b.closeFn == nil {
		return nil
	}
	fn := b.closeFn
	b.closeFn = nil
	return fn()
}
