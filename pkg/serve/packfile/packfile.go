// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package packfile implements Git's packfile wire format: the variable-length
// object header, ofs-delta/ref-delta resolution against objects already seen
// in the same pack or already present in the destination object database,
// and zlib inflation with trailing-garbage recovery (some clients pad the
// final compressed stream by a byte or two; we read only as much as the
// zlib stream itself declares done).
package packfile

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/git/gitobj/pack"
	"github.com/antgroup/vaultgit/modules/streamio"
)

const (
	packSignature = "PACK"
	// supportedVersion is the only packfile version Git itself emits.
	supportedVersion = 2
)

// Object is one fully-resolved (non-delta) object recovered from a pack.
type Object struct {
	OID  []byte
	Type pack.PackedObjectType
	Data []byte
}

// entry is an in-progress pack entry: either already resolved (Data set) or
// still waiting on its base (baseOffset/baseOID set, resolved once the base
// is known).
type entry struct {
	typ        pack.PackedObjectType
	offset     int64
	data       []byte
	baseOffset int64
	baseOID    []byte
	resolved   bool
}

// BaseLookup resolves a ref-delta base not present in the pack itself
// (already stored in the destination object database) — needed for "thin
// packs", where a client omits objects the server is already known to have.
type BaseLookup func(oid []byte) (pack.PackedObjectType, []byte, error)

// Unpack decodes the packfile read from r and resolves every delta chain,
// returning the objects in first-appearance order. It does not write
// anything to a database; callers combine it with gitobj.Database via
// Store. lookup may be nil if the pack is not thin.
func Unpack(r io.Reader, lookup BaseLookup) ([]*Object, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var header [12]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("packfile: short header: %w", err)
	}
	if string(header[0:4]) != packSignature {
		return nil, fmt.Errorf("packfile: bad signature %q", header[0:4])
	}
	version := binary.BigEndian.Uint32(header[4:8])
	if version != supportedVersion {
		return nil, &pack.UnsupportedVersionErr{Got: int(version)}
	}
	count := binary.BigEndian.Uint32(header[8:12])

	cr := &countingReader{r: br}
	entries := make([]*entry, 0, count)
	byOffset := make(map[int64]*entry, count)

	for i := uint32(0); i < count; i++ {
		off := cr.n
		typ, size, err := readTypeAndSize(cr)
		if err != nil {
			return nil, fmt.Errorf("packfile: entry %d header: %w", i, err)
		}
		e := &entry{typ: typ, offset: off}
		switch typ {
		case pack.TypeObjectOffsetDelta:
			negOffset, err := readOffsetDelta(cr)
			if err != nil {
				return nil, err
			}
			e.baseOffset = off - negOffset
			data, err := inflate(cr)
			if err != nil {
				return nil, err
			}
			e.data = data
		case pack.TypeObjectReferenceDelta:
			var oid [20]byte
			if _, err := io.ReadFull(cr, oid[:]); err != nil {
				return nil, err
			}
			e.baseOID = oid[:]
			data, err := inflate(cr)
			if err != nil {
				return nil, err
			}
			e.data = data
		default:
			data, err := inflate(cr)
			if err != nil {
				return nil, err
			}
			if int64(len(data)) != size {
				return nil, fmt.Errorf("packfile: entry %d size mismatch", i)
			}
			e.data = data
			e.resolved = true
		}
		entries = append(entries, e)
		byOffset[off] = e
	}

	resolvedByOID := make(map[string]*Object)
	out := make([]*Object, 0, len(entries))
	for _, e := range entries {
		obj, err := resolve(e, byOffset, resolvedByOID, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func resolve(e *entry, byOffset map[int64]*entry, resolvedByOID map[string]*Object, lookup BaseLookup) (*Object, error) {
	if e.resolved {
		oid := objectID(e.typ, e.data)
		obj := &Object{OID: oid, Type: e.typ, Data: e.data}
		resolvedByOID[string(oid)] = obj
		return obj, nil
	}

	var base *Object
	var err error
	if e.baseOID != nil {
		if found, ok := resolvedByOID[string(e.baseOID)]; ok {
			base = found
		} else if lookup != nil {
			typ, data, lerr := lookup(e.baseOID)
			if lerr != nil {
				return nil, fmt.Errorf("packfile: ref-delta base %x: %w", e.baseOID, lerr)
			}
			base = &Object{OID: e.baseOID, Type: typ, Data: data}
		} else {
			return nil, fmt.Errorf("packfile: ref-delta base %x not found", e.baseOID)
		}
	} else {
		be, ok := byOffset[e.baseOffset]
		if !ok {
			return nil, fmt.Errorf("packfile: ofs-delta base at offset %d not found", e.baseOffset)
		}
		base, err = resolve(be, byOffset, resolvedByOID, lookup)
		if err != nil {
			return nil, err
		}
	}

	resolved, err := applyDelta(base.Data, e.data)
	if err != nil {
		return nil, err
	}
	e.data = resolved
	e.typ = base.Type
	e.resolved = true

	oid := objectID(e.typ, e.data)
	obj := &Object{OID: oid, Type: e.typ, Data: e.data}
	resolvedByOID[string(oid)] = obj
	return obj, nil
}

// objectID computes the Git object id (SHA-1 over "type size\0data").
func objectID(typ pack.PackedObjectType, data []byte) []byte {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", typ.String(), len(data))
	h.Write(data)
	return h.Sum(nil)
}

// countingReader tracks how many bytes have been consumed so ofs-delta
// offsets (relative to the start of the packfile) can be resolved.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readTypeAndSize decodes Git's variable-length object header: the first
// byte holds a continuation bit, a 3-bit type, and 4 size bits; each
// subsequent byte (while the continuation bit is set) contributes 7 more
// size bits, least-significant group first.
func readTypeAndSize(r *countingReader) (pack.PackedObjectType, int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	typ := pack.PackedObjectType((b >> 4) & 0x7)
	size := int64(b & 0x0f)
	shift := uint(4)
	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		size |= int64(b&0x7f) << shift
		shift += 7
	}
	return typ, size, nil
}

// readOffsetDelta decodes the base-object back-offset used by ofs-delta
// entries: a base-128 varint where every continuation byte after the first
// is offset by one, per Git's pack-format.txt.
func readOffsetDelta(r *countingReader) (int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	offset := int64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		offset = ((offset + 1) << 7) | int64(b&0x7f)
	}
	return offset, nil
}

func inflate(r io.Reader) ([]byte, error) {
	zr, err := streamio.GetZlibReader(r)
	if err != nil {
		return nil, err
	}
	defer streamio.PutZlibReader(zr)
	return io.ReadAll(zr)
}

// applyDelta reproduces the "new" object from base using Git's delta
// instruction stream: each instruction is either a copy (from the base, at
// an offset/size encoded by present-byte bitmasks) or an insert of literal
// bytes carried inline.
func applyDelta(base, delta []byte) ([]byte, error) {
	br := bytes.NewReader(delta)
	baseSize, err := readDeltaSize(br)
	if err != nil {
		return nil, err
	}
	if int(baseSize) != len(base) {
		return nil, fmt.Errorf("packfile: delta base size mismatch: got %d want %d", len(base), baseSize)
	}
	resultSize, err := readDeltaSize(br)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, resultSize)
	for br.Len() > 0 {
		opb, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		if opb&0x80 != 0 {
			var cpOff, cpSize uint32
			if opb&0x01 != 0 {
				b, _ := br.ReadByte()
				cpOff |= uint32(b)
			}
			if opb&0x02 != 0 {
				b, _ := br.ReadByte()
				cpOff |= uint32(b) << 8
			}
			if opb&0x04 != 0 {
				b, _ := br.ReadByte()
				cpOff |= uint32(b) << 16
			}
			if opb&0x08 != 0 {
				b, _ := br.ReadByte()
				cpOff |= uint32(b) << 24
			}
			if opb&0x10 != 0 {
				b, _ := br.ReadByte()
				cpSize |= uint32(b)
			}
			if opb&0x20 != 0 {
				b, _ := br.ReadByte()
				cpSize |= uint32(b) << 8
			}
			if opb&0x40 != 0 {
				b, _ := br.ReadByte()
				cpSize |= uint32(b) << 16
			}
			if cpSize == 0 {
				cpSize = 0x10000
			}
			if int(cpOff)+int(cpSize) > len(base) {
				return nil, fmt.Errorf("packfile: delta copy out of range")
			}
			out = append(out, base[cpOff:cpOff+cpSize]...)
		} else if opb != 0 {
			n := int(opb)
			buf := make([]byte, n)
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, err
			}
			out = append(out, buf...)
		} else {
			return nil, fmt.Errorf("packfile: invalid delta opcode 0")
		}
	}
	if int64(len(out)) != resultSize {
		return nil, fmt.Errorf("packfile: delta result size mismatch: got %d want %d", len(out), resultSize)
	}
	return out, nil
}

func readDeltaSize(r *bytes.Reader) (int64, error) {
	var size int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		size |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	return size, nil
}

// Store decodes each resolved Object into a gitobj.Object and writes it
// through db, so Unpack's output lands in the destination repository's
// loose-object storage (Component B, via Component C).
func Store(db *gitobj.Database, objs []*Object) error {
	for _, o := range objs {
		if err := storeOne(db, o); err != nil {
			return fmt.Errorf("packfile: store %x: %w", o.OID, err)
		}
	}
	return nil
}

func storeOne(db *gitobj.Database, o *Object) error {
	switch o.Type {
	case pack.TypeBlob:
		b := &gitobj.Blob{Contents: bytes.NewReader(o.Data), Size: int64(len(o.Data))}
		_, err := db.WriteBlob(b)
		return err
	case pack.TypeTree:
		t := &gitobj.Tree{}
		if _, err := t.Decode(nil, bytes.NewReader(o.Data), int64(len(o.Data))); err != nil {
			return err
		}
		_, err := db.WriteTree(t)
		return err
	case pack.TypeCommit:
		c := &gitobj.Commit{}
		if _, err := c.Decode(nil, bytes.NewReader(o.Data), int64(len(o.Data))); err != nil {
			return err
		}
		_, err := db.WriteCommit(c)
		return err
	case pack.TypeTag:
		t := &gitobj.Tag{}
		if _, err := t.Decode(nil, bytes.NewReader(o.Data), int64(len(o.Data))); err != nil {
			return err
		}
		_, err := db.WriteTag(t)
		return err
	default:
		return fmt.Errorf("unsupported object type %s", o.Type)
	}
}
