package forest

import "github.com/pkg/errors"

// nodeLookup is the slice of Store the resolver needs.
type nodeLookup interface {
	GetNode(id NodeID) (*Node, bool, error)
}

// resolveAncestry walks the parent chain starting at q.To and returns the
// collected nodes in root-to-leaf order.
//
// The walk stops when the current node's id equals q.From (that node is
// excluded from the result, so From == To yields an empty path), or, with a
// null From, when it reaches a root-level node (included). Exiting the tree
// while From was specified means From is not an ancestor of To:
// ErrInvalidRange. A dangling parent link can only come from a corrupted data
// directory and is reported as ErrInvalidRange as well, since the requested
// range cannot be resolved.
func resolveAncestry(store nodeLookup, q PathQuery) ([]*Node, error) {
	node, ok, err := store.GetNode(q.To)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "node %s", q.To)
	}

	var reversed []*Node
	seen := map[NodeID]bool{}

	for {
		if !q.From.IsNull() && node.ID == q.From {
			break
		}
		if seen[node.ID] {
			// unreachable for a store that only appends children to
			// pre-existing parents, present for corrupted directories
			return nil, errors.Wrapf(ErrIO, "parent cycle at node %s", node.ID)
		}
		seen[node.ID] = true
		reversed = append(reversed, node)

		parentID := node.ParentID
		if parentID.IsNull() {
			if !q.From.IsNull() {
				return nil, errors.Wrapf(ErrInvalidRange,
					"%s is not an ancestor of %s", q.From, q.To)
			}
			break
		}

		parent, ok, err := store.GetNode(parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(ErrInvalidRange,
				"node %s references missing parent %s", node.ID, parentID)
		}
		node = parent
	}

	// reverse into root-to-leaf order
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	return reversed, nil
}
