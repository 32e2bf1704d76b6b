package forest

// Package forest implements a branching conversation store.
//
// A conversation is a tree of messages rather than a linear transcript: every
// reply can fork into multiple alternative continuations. The Forest facade is
// what outer layers (CLI, GUI) talk to. It wraps a Store with the tree-aware
// operations - path reconstruction, child listing, metadata updates - and is
// the place where cross-record invariants are enforced.
//
// The Forest holds no notion of a "current node"; session position belongs to
// the outer layer and is passed in explicitly where needed.

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store is the durable keyed storage Forest builds on. Implementations own the
// on-disk layout, write atomicity, and identifier uniqueness. See the store
// package for the file-backed implementation.
type Store interface {
	CreateRoot(cfg RootConfig) (*Root, error)
	// CreateNode persists a new node and, for a non-null parent, the parent's
	// updated child list, as a single atomic unit. rootID is only consulted
	// when parentID is null; otherwise the root is inherited from the parent.
	CreateNode(rootID RootID, parentID NodeID, msg Message, md Metadata) (*Node, error)
	GetNode(id NodeID) (*Node, bool, error)
	GetRoot(id RootID) (*Root, bool, error)
	GetChildren(id NodeID) ([]*Node, error)
	UpdateNodeMetadata(id NodeID, md Metadata) (*Node, error)
}

type Forest struct {
	store Store
}

func New(store Store) *Forest {
	return &Forest{store: store}
}

// NodeOption configures node creation through CreateMessageNode.
type NodeOption func(*nodeParams)

type nodeParams struct {
	rootID RootID
	md     Metadata
}

// WithTags sets the initial tags of the new node. Which tags a fresh node
// carries (e.g. unread) is the caller's policy, not the store's.
func WithTags(tags ...string) NodeOption {
	return func(p *nodeParams) {
		for _, t := range tags {
			p.md = p.md.WithTag(t)
		}
	}
}

// WithRootID names the conversation a root-level node belongs to. Required
// when parentID is null, ignored otherwise.
func WithRootID(rootID RootID) NodeOption {
	return func(p *nodeParams) {
		p.rootID = rootID
	}
}

// CreateRoot starts a new conversation.
func (f *Forest) CreateRoot(cfg RootConfig) (*Root, error) {
	root, err := f.store.CreateRoot(cfg)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root_id", root.ID.String()).
		Str("model", root.Config.Model).
		Msg("created root")

	return root, nil
}

// CreateMessageNode extends the tree with one message, the single entry point
// outer layers use to append user or assistant turns.
func (f *Forest) CreateMessageNode(parentID NodeID, msg Message, options ...NodeOption) (*Node, error) {
	params := nodeParams{}
	for _, option := range options {
		option(&params)
	}

	node, err := f.store.CreateNode(params.rootID, parentID, msg, params.md)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("node_id", node.ID.String()).
		Str("parent_id", node.ParentID.String()).
		Str("role", string(node.Message.Role)).
		Strs("tags", node.Metadata.Tags).
		Msg("created message node")

	return node, nil
}

func (f *Forest) GetNode(id NodeID) (*Node, bool, error) {
	return f.store.GetNode(id)
}

func (f *Forest) GetRoot(id RootID) (*Root, bool, error) {
	return f.store.GetRoot(id)
}

// GetChildren lists a node's children in creation order. Unknown ids yield an
// empty list, same as leaves.
func (f *Forest) GetChildren(id NodeID) ([]*Node, error) {
	return f.store.GetChildren(id)
}

// UpdateNodeMetadata replaces a node's metadata wholesale. The caller computes
// the merge (e.g. Metadata.WithoutTag) and hands over the full new value.
func (f *Forest) UpdateNodeMetadata(id NodeID, md Metadata) (*Node, error) {
	node, err := f.store.UpdateNodeMetadata(id, md)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("node_id", id.String()).
		Strs("tags", md.Tags).
		Msg("updated node metadata")

	return node, nil
}

// PathQuery asks for the history between two points of the tree. From is
// optional: when null, the walk runs all the way to the root-level node.
type PathQuery struct {
	From NodeID
	To   NodeID
}

// Path is the result of a path query: the owning RootData plus the nodes in
// root-to-leaf order. When From was given, the node with that id is excluded;
// when it was null, the first element is the root-level node itself.
type Path struct {
	Root  *Root
	Nodes []*Node
}

// GetPath reconstructs the message history leading to q.To by walking the
// ancestor chain. O(depth of To). Fails with ErrNotFound when To is unknown
// and ErrInvalidRange when From is not an ancestor of To. From == To is a
// valid query and yields an empty path.
func (f *Forest) GetPath(q PathQuery) (*Path, error) {
	// the root is resolved from To's own record: the path may be empty
	to, ok, err := f.store.GetNode(q.To)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "node %s", q.To)
	}

	nodes, err := resolveAncestry(f.store, q)
	if err != nil {
		return nil, err
	}

	root, ok, err := f.store.GetRoot(to.RootID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "root %s of node %s", to.RootID, q.To)
	}

	return &Path{Root: root, Nodes: nodes}, nil
}
