package plumbing

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"
)

const (
	HASH_DIGEST_SIZE = 20
	HASH_HEX_SIZE    = 40
	reverseHexTable  = "" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\xff\xff\xff\xff\xff\xff" +
		"\xff\x0a\x0b\x0c\x0d\x0e\x0f\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\x0a\x0b\x0c\x0d\x0e\x0f\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff" +
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff"
)

const (
	// BLANK_BLOB is the SHA-1 of the empty blob, "blob 0\0".
	BLANK_BLOB = "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"
	ZERO_OID   = "0000000000000000000000000000000000000000"
)

// Hash is a 20-byte SHA-1 Git object id.
type Hash [HASH_DIGEST_SIZE]byte

func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte("\"" + h.String() + "\""), nil
}

func (h *Hash) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	hashBytes, _ := hex.DecodeString(s)
	copy(h[:], hashBytes)
	return nil
}

// MarshalText implements encoding.TextMarshaler, used by TOML/YAML decoders.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	hashBytes, _ := hex.DecodeString(string(text))
	copy(h[:], hashBytes)
	return nil
}

// ZeroHash is Hash with value zero.
var ZeroHash Hash

// NewHash returns a new Hash from a hexadecimal hash representation.
func NewHash(s string) Hash {
	b, _ := hex.DecodeString(s)

	var h Hash
	copy(h[:], b)

	return h
}

func (h Hash) IsZero() bool {
	var empty Hash
	return h == empty
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Shorten() int {
	i := HASH_DIGEST_SIZE - 1
	for ; i >= 4; i-- {
		if h[i] != 0 {
			return i + 1
		}
	}
	return i + 1
}

func (h Hash) Prefix() string {
	return hex.EncodeToString(h[:h.Shorten()])
}

// HashesSort sorts a slice of Hashes in increasing order.
func HashesSort(a []Hash) {
	sort.Sort(HashSlice(a))
}

// HashSlice attaches the methods of sort.Interface to []Hash, sorting in
// increasing order.
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return bytes.Compare(p[i][:], p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// ValidateHashHex returns true if the given string is a valid hash.
func ValidateHashHex(s string) bool {
	if len(s) != HASH_HEX_SIZE {
		return false
	}
	bs := []byte(s)
	for _, b := range bs {
		if c := reverseHexTable[b]; c > 0x0f {
			return false
		}
	}
	return true
}

func NewHashEx(s string) (Hash, error) {
	if !ValidateHashHex(s) {
		return ZeroHash, fmt.Errorf("'%s' is not a valid object name", s)
	}
	return NewHash(s), nil
}

// IsLooseDir reports whether s is a valid two-hex-digit loose-object shard
// directory name.
func IsLooseDir(s string) bool {
	if len(s) != 2 {
		return false
	}
	bs := []byte(s)
	for _, b := range bs {
		if c := reverseHexTable[b]; c > 0x0f {
			return false
		}
	}
	return true
}

// Hasher wraps the SHA-1 hash used to compute Git object ids.
type Hasher struct {
	hash.Hash
}

func NewHasher() Hasher {
	return Hasher{Hash: sha1.New()}
}

func (h Hasher) Sum() (hash Hash) {
	copy(hash[:], h.Hash.Sum(nil))
	return
}
