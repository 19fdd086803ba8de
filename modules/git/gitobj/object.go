package gitobj

import (
	"fmt"
	"hash"
	"io"
	"strconv"
	"strings"
	"time"
)

// ObjectType is the type of a Git object: blob, tree, commit, or tag.
type ObjectType string

const (
	BlobObjectType    ObjectType = "blob"
	TreeObjectType    ObjectType = "tree"
	CommitObjectType  ObjectType = "commit"
	TagObjectType     ObjectType = "tag"
	UnknownObjectType ObjectType = "unknown"
)

// ObjectTypeFromString parses the header type field of a loose object or a
// tag body into an ObjectType, defaulting to UnknownObjectType.
func ObjectTypeFromString(s string) ObjectType {
	switch ObjectType(s) {
	case BlobObjectType, TreeObjectType, CommitObjectType, TagObjectType:
		return ObjectType(s)
	default:
		return UnknownObjectType
	}
}

func (t ObjectType) String() string {
	return string(t)
}

// Object is satisfied by Blob, Tree, Commit, and Tag.
type Object interface {
	// Type returns the type of this object.
	Type() ObjectType

	// Decode reads the uncompressed representation of this object from r,
	// which carries exactly size bytes, and returns the number of bytes
	// consumed.
	Decode(hash hash.Hash, r io.Reader, size int64) (int, error)

	// Encode writes the canonical uncompressed representation of this
	// object to w and returns the number of bytes written.
	Encode(w io.Writer) (int, error)
}

// UnexpectedObjectType is returned when an object is read from the database
// and has a type other than the one requested.
type UnexpectedObjectType struct {
	Got    ObjectType
	Wanted ObjectType
}

func (u *UnexpectedObjectType) Error() string {
	return fmt.Sprintf("git/object: unexpected object type, got: %q, wanted: %q", u.Got, u.Wanted)
}

// Signature is the Name/Email/When triple carried by a commit's author and
// committer lines.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

const signatureTZLayout = "-0700"

// String renders the signature the way it appears in the commit object:
//
//	Taylor Blau <ttaylorr@github.com> 1494258422 -0600
func (s *Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format(signatureTZLayout))
}

// ParseSignature parses a signature line of the form produced by String.
func ParseSignature(line string) *Signature {
	emailStart := strings.LastIndexByte(line, '<')
	emailEnd := strings.LastIndexByte(line, '>')
	if emailStart < 0 || emailEnd < 0 || emailEnd < emailStart {
		return &Signature{}
	}
	sig := &Signature{
		Name:  strings.TrimSpace(line[:emailStart]),
		Email: line[emailStart+1 : emailEnd],
	}
	rest := strings.TrimSpace(line[emailEnd+1:])
	fields := strings.Fields(rest)
	if len(fields) == 2 {
		sec, err1 := strconv.ParseInt(fields[0], 10, 64)
		tzHours, err2 := strconv.ParseInt(fields[1][:3], 10, 64)
		tzMins, err3 := strconv.ParseInt(fields[1][3:], 10, 64)
		if err1 == nil && err2 == nil && err3 == nil {
			sign := int64(1)
			if tzHours < 0 || strings.HasPrefix(fields[1], "-") {
				sign = -1
				tzHours = -tzHours
			}
			offset := sign * (tzHours*3600 + tzMins*60)
			loc := time.FixedZone("", int(offset))
			sig.When = time.Unix(sec, 0).In(loc)
		}
	}
	return sig
}
