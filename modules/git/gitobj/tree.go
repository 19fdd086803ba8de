package gitobj

import (
	"bufio"
	"bytes"
	"fmt"
	"hash"
	"io"
	"sort"
	"strconv"

	"github.com/antgroup/vaultgit/modules/plumbing/filemode"
)

// TreeEntry is a single row of a Git tree object: a name, a file mode, and
// the OID of the blob or tree it names.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Oid  []byte
}

// Tree represents a Git tree object: an ordered list of TreeEntry, each
// naming either a blob (a file) or another tree (a directory).
type Tree struct {
	Entries []*TreeEntry
}

// Entry returns the TreeEntry with the given name, or nil if none is found.
func (t *Tree) Entry(name string) *TreeEntry {
	for _, e := range t.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Type implements Object.Type.
func (t *Tree) Type() ObjectType { return TreeObjectType }

// Decode implements Object.Decode. Tree entries are packed as:
//
//	<mode> SP <name> NUL <20-byte binary oid>
//
// repeated until size bytes are consumed.
func (t *Tree) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	br := bufio.NewReader(io.LimitReader(r, size))

	var entries []*TreeEntry
	var read int

	for read < int(size) {
		modeAndName, err := br.ReadString(' ')
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		read += len(modeAndName)

		modeText := modeAndName[:len(modeAndName)-1]
		mode, err := filemode.New(modeText)
		if err != nil {
			return 0, fmt.Errorf("git/object: invalid tree entry mode: %w", err)
		}

		name, err := br.ReadString(0x00)
		if err != nil {
			return 0, fmt.Errorf("git/object: unterminated tree entry name: %w", err)
		}
		read += len(name)
		name = name[:len(name)-1]

		oid := make([]byte, 20)
		if _, err := io.ReadFull(br, oid); err != nil {
			return 0, fmt.Errorf("git/object: short tree entry oid: %w", err)
		}
		read += len(oid)

		entries = append(entries, &TreeEntry{
			Name: name,
			Mode: mode,
			Oid:  oid,
		})
	}

	t.Entries = entries

	return int(size), nil
}

// Encode implements Object.Encode. Entries are written in the order they
// appear in t.Entries; callers that construct a Tree directly must order
// entries per SortEntries before encoding to produce the canonical OID.
func (t *Tree) Encode(w io.Writer) (int, error) {
	var written int
	for _, e := range t.Entries {
		mode := strconv.FormatUint(uint64(e.Mode), 8)
		n, err := fmt.Fprintf(w, "%s %s\x00", mode, e.Name)
		if err != nil {
			return written, err
		}
		written += n

		on, err := w.Write(e.Oid)
		if err != nil {
			return written, err
		}
		written += on
	}
	return written, nil
}

// SortEntries orders a tree's entries the way `git mktree` does: byte-wise by
// name, with directory entries compared as though their name carried a
// trailing slash.
func SortEntries(entries []*TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j])
	})
}

func treeEntrySortKey(e *TreeEntry) string {
	if e.Mode&^filemode.Fragments == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// Equal returns whether the receiving and given Trees are equal, meaning
// they would be represented by the same OID once encoded.
func (t *Tree) Equal(other *Tree) bool {
	if (t == nil) != (other == nil) {
		return false
	}
	if t == nil {
		return true
	}
	if len(t.Entries) != len(other.Entries) {
		return false
	}
	for i, e := range t.Entries {
		o := other.Entries[i]
		if e.Name != o.Name || e.Mode != o.Mode || !bytes.Equal(e.Oid, o.Oid) {
			return false
		}
	}
	return true
}
