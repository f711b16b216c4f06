package toc

// ChildrenKind discriminates how a Node's children are organized, adapted
// from the teacher's small uint8-enum-plus-String() pattern in
// format/types.go (EncodingType/CompressionType).
type ChildrenKind uint8

const (
	// ChildrenNone means the node has no indexed children: either a leaf, or
	// an array represented purely as a block list in Blocks.
	ChildrenNone ChildrenKind = iota
	// ChildrenMap means ChildMap holds one sub-node per map key.
	ChildrenMap
	// ChildrenList means ChildList holds one sub-node per array element.
	ChildrenList
)

func (k ChildrenKind) String() string {
	switch k {
	case ChildrenMap:
		return "Map"
	case ChildrenList:
		return "List"
	default:
		return "None"
	}
}
