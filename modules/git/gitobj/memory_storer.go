package gitobj

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/antgroup/vaultgit/modules/git/gitobj/errors"
)

// memoryStorer is an in-memory storage.WritableStorage, used by tests that
// exercise a *Database without touching a real backend.
type memoryStorer struct {
	fs map[string]io.ReadWriter
}

func newMemoryStorer(fs map[string]io.ReadWriter) *memoryStorer {
	if fs == nil {
		fs = make(map[string]io.ReadWriter)
	}
	return &memoryStorer{fs: fs}
}

func (m *memoryStorer) Open(oid []byte) (io.ReadCloser, error) {
	rw, ok := m.fs[hex.EncodeToString(oid)]
	if !ok {
		return nil, errors.NoSuchObject(oid)
	}
	return io.NopCloser(rw), nil
}

func (m *memoryStorer) Store(oid []byte, r io.Reader) (int64, error) {
	key := hex.EncodeToString(oid)
	if _, ok := m.fs[key]; ok {
		return 0, nil
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}

	m.fs[key] = &buf
	return n, nil
}

func (m *memoryStorer) Close() error {
	return nil
}

func (m *memoryStorer) IsCompressed() bool {
	return false
}
