package forest

import (
	"encoding/json"

	"github.com/google/uuid"
)

// NodeID identifies a single message node. IDs are never reused.
type NodeID uuid.UUID

func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uuid.UUID(id))
}

func (id *NodeID) UnmarshalJSON(data []byte) error {
	var u uuid.UUID
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

func (id NodeID) IsNull() bool {
	return uuid.UUID(id) == uuid.Nil
}

func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// ParseNodeID parses the canonical uuid string form of a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NullNode, err
	}
	return NodeID(u), nil
}

// NullNode marks the absence of a node: a node whose ParentID is NullNode sits
// at the top of its conversation, directly under the RootData.
var NullNode = NodeID(uuid.Nil)

// RootID identifies one conversation's RootData record.
type RootID uuid.UUID

func (id RootID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uuid.UUID(id))
}

func (id *RootID) UnmarshalJSON(data []byte) error {
	var u uuid.UUID
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*id = RootID(u)
	return nil
}

func (id RootID) String() string {
	return uuid.UUID(id).String()
}

func (id RootID) IsNull() bool {
	return uuid.UUID(id) == uuid.Nil
}

func NewRootID() RootID {
	return RootID(uuid.New())
}

func ParseRootID(s string) (RootID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NullRoot, err
	}
	return RootID(u), nil
}

var NullRoot = RootID(uuid.Nil)
