package store

// NodeType identifies the kind of a graph node. The set is closed: every
// consumer (context mapping, scoring, rendering) switches exhaustively over
// these values.
type NodeType string

const (
	// NodeTypeRoot is the single entry point of a board. Exactly one per
	// board, created with the board, never deleted on its own.
	NodeTypeRoot NodeType = "root"
	// NodeTypeMessage is a conversational turn: a question (user role) or
	// an answer (assistant role).
	NodeTypeMessage NodeType = "message"
	// NodeTypeNote is a free-form annotation.
	NodeTypeNote NodeType = "note"
	// NodeTypeTopic is a model-extracted topic.
	NodeTypeTopic NodeType = "topic"
)

// NodeRole is the conversational role of a node. Non-message nodes always
// carry the system role.
type NodeRole string

const (
	NodeRoleUser      NodeRole = "user"
	NodeRoleAssistant NodeRole = "assistant"
	NodeRoleSystem    NodeRole = "system"
)

// NodeMetadata carries optional user annotations.
type NodeMetadata struct {
	// Importance ranges 1..5; 0 means unset and scores as 3.
	Importance int      `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Pin        bool     `json:"pin,omitempty"`
}

// Clone returns a deep copy.
func (m *NodeMetadata) Clone() *NodeMetadata {
	if m == nil {
		return nil
	}
	out := &NodeMetadata{Importance: m.Importance, Pin: m.Pin}
	if len(m.Tags) > 0 {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

// Node is one vertex of a board graph. ParentIDs is ordered and the order is
// significant: index 0 is the main parent defining the primary lineage, any
// later entry is a sub-parent contributing auxiliary context. ChildrenIDs is
// the derived mirror of ParentIDs; every link mutation updates both sides.
type Node struct {
	ID          string        `json:"id"`
	Type        NodeType      `json:"type"`
	Role        NodeRole      `json:"role"`
	Title       string        `json:"title,omitempty"`
	Content     string        `json:"content"`
	ParentIDs   []string      `json:"parentIds"`
	ChildrenIDs []string      `json:"childrenIds"`
	Metadata    *NodeMetadata `json:"metadata,omitempty"`
	// QAPairID links a question node to its in-flight or completed answer.
	QAPairID string `json:"qaPairId,omitempty"`
	// IsLoading marks a placeholder node awaiting an asynchronous result.
	IsLoading bool  `json:"isLoading,omitempty"`
	CreatedTs int64 `json:"createdTs"`
	UpdatedTs int64 `json:"updatedTs"`
}

// MainParentID returns the id of the main parent, or "" for the root.
func (n *Node) MainParentID() string {
	if len(n.ParentIDs) == 0 {
		return ""
	}
	return n.ParentIDs[0]
}

// DefaultImportance is assumed for nodes without an explicit importance.
const DefaultImportance = 3

// EffectiveImportance returns the annotated importance, or the default when
// unset.
func (n *Node) EffectiveImportance() int {
	if n.Metadata == nil || n.Metadata.Importance == 0 {
		return DefaultImportance
	}
	return n.Metadata.Importance
}

// Pinned reports whether the node is pinned.
func (n *Node) Pinned() bool {
	return n.Metadata != nil && n.Metadata.Pin
}

// TagList returns the annotated tags, never nil-panicking on bare nodes.
func (n *Node) TagList() []string {
	if n.Metadata == nil {
		return nil
	}
	return n.Metadata.Tags
}

// IsQuestion reports whether the node is a user message.
func (n *Node) IsQuestion() bool {
	return n.Type == NodeTypeMessage && n.Role == NodeRoleUser
}

// IsAnswer reports whether the node is an assistant message.
func (n *Node) IsAnswer() bool {
	return n.Type == NodeTypeMessage && n.Role == NodeRoleAssistant
}

// Clone returns a deep copy safe to hand out to readers.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.ParentIDs = append([]string(nil), n.ParentIDs...)
	out.ChildrenIDs = append([]string(nil), n.ChildrenIDs...)
	out.Metadata = n.Metadata.Clone()
	return &out
}

// CreateNode is the parameter set for adding a node to an open board.
type CreateNode struct {
	Type      NodeType
	Role      NodeRole
	Title     string
	Content   string
	ParentIDs []string
	Metadata  *NodeMetadata
	QAPairID  string
	IsLoading bool
}

// UpdateNode is the partial-update parameter set. Nil fields are untouched.
type UpdateNode struct {
	ID        string
	Title     *string
	Content   *string
	Metadata  *NodeMetadata
	QAPairID  *string
	IsLoading *bool
}
