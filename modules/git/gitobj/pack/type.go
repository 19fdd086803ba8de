package pack

// PackedObjectType is the 3-bit object type field stored in each packfile
// object's variable-length header.
type PackedObjectType uint8

const (
	TypeNone   PackedObjectType = 0
	TypeCommit PackedObjectType = 1
	TypeTree   PackedObjectType = 2
	TypeBlob   PackedObjectType = 3
	TypeTag    PackedObjectType = 4
	// 5 is reserved by the packfile format.
	TypeObjectOffsetDelta    PackedObjectType = 6
	TypeObjectReferenceDelta PackedObjectType = 7
)

func (t PackedObjectType) String() string {
	switch t {
	case TypeNone:
		return "<none>"
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	case TypeObjectOffsetDelta:
		return "obj_ofs_delta"
	case TypeObjectReferenceDelta:
		return "obj_ref_delta"
	}
	return "<unknown>"
}
