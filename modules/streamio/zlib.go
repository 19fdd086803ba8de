package streamio

import (
	"bufio"
	"compress/zlib"
	"io"
	"sync"
)

var (
	zlibWriter = sync.Pool{
		New: func() any {
			return &ZlibWriter{Writer: zlib.NewWriter(nil)}
		},
	}
)

// ZlibWriter is a *zlib.Writer managed by a sync.Pool.
type ZlibWriter struct {
	*zlib.Writer
}

// GetZlibWriter returns a *ZlibWriter reset to write to w. After use, it
// should be returned to the pool with PutZlibWriter.
func GetZlibWriter(w io.Writer) *ZlibWriter {
	z := zlibWriter.Get().(*ZlibWriter)
	z.Writer.Reset(w)
	return z
}

// PutZlibWriter flushes and closes z, then returns it to the pool.
func PutZlibWriter(z *ZlibWriter) {
	_ = z.Writer.Close()
	zlibWriter.Put(z)
}

// ZlibReader pairs a zlib.Reader with the buffered reader that feeds it so
// both can be recycled together.
type ZlibReader struct {
	io.Reader
	closer io.Closer
	br     *bufio.Reader
}

// GetZlibReader inflates r as a zlib stream. The returned ZlibReader should
// be returned to the pool with PutZlibReader once fully consumed.
func GetZlibReader(r io.Reader) (*ZlibReader, error) {
	br := GetBufioReader(r)
	zr, err := zlib.NewReader(br)
	if err != nil {
		PutBufioReader(br)
		return nil, err
	}
	return &ZlibReader{Reader: zr, closer: zr, br: br}, nil
}

// PutZlibReader closes the underlying zlib reader and releases the buffered
// reader back to its pool.
func PutZlibReader(z *ZlibReader) {
	if z == nil {
		return
	}
	_ = z.closer.Close()
	PutBufioReader(z.br)
}
