// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package packfile

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/antgroup/vaultgit/modules/git/gitobj/pack"
	"github.com/antgroup/vaultgit/modules/streamio"
)

// Entry is one object to serialize into an upload-pack response. Encode
// never emits deltas: every object is stored whole, which is always a
// legal (if less compact) packfile and keeps the server side of the
// protocol simple.
type Entry struct {
	Type pack.PackedObjectType
	Data []byte
}

// Encode writes a well-formed version-2 packfile containing entries, in
// the order given, terminated by the SHA-1 checksum of everything written.
func Encode(w io.Writer, entries []*Entry) error {
	h := sha1.New()
	mw := io.MultiWriter(w, h)

	var header [12]byte
	copy(header[0:4], packSignature)
	binary.BigEndian.PutUint32(header[4:8], supportedVersion)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(entries)))
	if _, err := mw.Write(header[:]); err != nil {
		return err
	}

	for _, e := range entries {
		if err := writeEntryHeader(mw, e.Type, int64(len(e.Data))); err != nil {
			return err
		}
		if err := deflate(mw, e.Data); err != nil {
			return err
		}
	}

	sum := h.Sum(nil)
	_, err := w.Write(sum)
	return err
}

func writeEntryHeader(w io.Writer, typ pack.PackedObjectType, size int64) error {
	first := byte(typ&0x7) << 4
	first |= byte(size & 0x0f)
	size >>= 4
	if size != 0 {
		first |= 0x80
	}
	buf := []byte{first}
	for size != 0 {
		b := byte(size & 0x7f)
		size >>= 7
		if size != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	_, err := w.Write(buf)
	return err
}

func deflate(w io.Writer, data []byte) error {
	zw := streamio.GetZlibWriter(w)
	defer streamio.PutZlibWriter(zw)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("packfile: deflate: %w", err)
	}
	return nil
}
