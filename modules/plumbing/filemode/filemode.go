// Package filemode defines the set of valid Git tree entry file modes.
//
// Modeled on go-git's plumbing/filemode package: a mode is the Unix-style
// st_mode bits Git actually stores in a tree entry (always one of a small,
// fixed set of values).
package filemode

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileMode is an os-independent representation of a Git tree entry's mode.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0040000
	Regular    FileMode = 0100644
	Deprecated FileMode = 0100000
	Executable FileMode = 0100755
	Symlink    FileMode = 0120000
	Submodule  FileMode = 0160000

	// Fragments marks a blob whose content is chunked across multiple
	// stored fragments rather than held as one contiguous payload. Not
	// used by the loose-object/packfile path; carried only so tree
	// entries copied from a fragmenting store round-trip the bit.
	Fragments FileMode = 0070000
)

// String renders the mode as Git's canonical zero-padded octal text, e.g.
// "100644".
func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(m))
}

// IsRegular reports whether m (ignoring Fragments) names a non-executable
// file.
func (m FileMode) IsRegular() bool {
	return m&^Fragments == Regular
}

// IsMalformed reports whether m is not one of the modes Git tree entries may
// carry.
func (m FileMode) IsMalformed() bool {
	switch m &^ Fragments {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	}
	return true
}

// ToOSFileMode converts m to the nearest equivalent os.FileMode.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m &^ Fragments {
	case Dir:
		return os.ModeDir | 0755, nil
	case Regular:
		return 0644, nil
	case Deprecated, Executable:
		return 0755, nil
	case Symlink:
		return os.ModeSymlink | 0777, nil
	case Submodule:
		return os.ModeDir | os.ModeIrregular, nil
	}
	return 0, fmt.Errorf("filemode: malformed file mode %o", uint32(m))
}

// New parses the octal textual mode Git stores in tree entries.
func New(s string) (FileMode, error) {
	var v uint32
	if _, err := fmt.Sscanf(s, "%o", &v); err != nil {
		return Empty, fmt.Errorf("filemode: invalid mode %q: %w", s, err)
	}
	return FileMode(v), nil
}

// NewFromOSFileMode maps an os.FileMode onto the closest Git tree entry mode.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	switch {
	case m.IsDir():
		return Dir, nil
	case m&os.ModeSymlink != 0:
		return Symlink, nil
	case m&0111 != 0:
		return Executable, nil
	case m.IsRegular():
		return Regular, nil
	}
	return Empty, fmt.Errorf("filemode: unsupported os.FileMode %v", m)
}

func (m FileMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *FileMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := New(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
