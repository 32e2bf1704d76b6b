package forest

// PartitionByTag reorders children so that every node carrying tag comes
// before every node that doesn't, preserving the original relative order
// within each group. Callers use it to present unread siblings first.
//
// Pure function: the input slice is left untouched.
func PartitionByTag(children []*Node, tag string) []*Node {
	if len(children) == 0 {
		return nil
	}

	tagged := make([]*Node, 0, len(children))
	var rest []*Node
	for _, child := range children {
		if child.Metadata.HasTag(tag) {
			tagged = append(tagged, child)
		} else {
			rest = append(rest, child)
		}
	}

	return append(tagged, rest...)
}
