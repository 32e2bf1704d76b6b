package forest

import "time"

// Node is one message placed at a specific point in a conversation tree.
//
// Relations are identifier lookups into the store, never object pointers:
// ParentID and ChildIDs are the only relational fields, which keeps records
// serializable and the parent graph trivially acyclic (a parent has to exist
// before any of its children, and parent links never change afterwards).
type Node struct {
	ID       NodeID `json:"id"`
	ParentID NodeID `json:"parentID"`
	// RootID names the conversation this node belongs to. It is inherited
	// from the parent on creation, so the owning RootData is discoverable
	// from any node without walking up the tree.
	RootID   RootID   `json:"rootID"`
	Message  Message  `json:"message"`
	ChildIDs []NodeID `json:"childIDs,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Depth-one check: a node directly under its RootData.
func (n *Node) IsRootLevel() bool {
	return n.ParentID.IsNull()
}

// Parameters is the typed shape of provider call options stored in a root's
// config. Recognized options are named fields; anything else goes into Extra.
// The core stores and returns these, it never interprets them.
type Parameters struct {
	MaxTokens     *int                   `json:"maxTokens,omitempty" yaml:"max-tokens,omitempty"`
	Temperature   *float64               `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP          *float64               `json:"topP,omitempty" yaml:"top-p,omitempty"`
	StopSequences []string               `json:"stopSequences,omitempty" yaml:"stop-sequences,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// RootConfig is one conversation's top-level configuration. Immutable after
// CreateRoot: the node-level API never touches it.
type RootConfig struct {
	Model        string     `json:"model" yaml:"model"`
	SystemPrompt string     `json:"systemPrompt,omitempty" yaml:"system-prompt,omitempty"`
	Parameters   Parameters `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

func (c RootConfig) Validate() error {
	if c.Model == "" {
		return errEmptyModel
	}
	return nil
}

// Root anchors one conversation tree.
type Root struct {
	ID        RootID     `json:"id"`
	Config    RootConfig `json:"config"`
	CreatedAt time.Time  `json:"createdAt"`
}
