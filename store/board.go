package store

// BoardDefaults carries per-board overrides for model requests. Zero values
// fall back to the global settings document.
type BoardDefaults struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// Board is the document describing one mind map. The node graph itself lives
// in the companion node list; RootNodeID anchors it.
type Board struct {
	ID          string        `json:"id"`
	RootNodeID  string        `json:"rootNodeId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Defaults    BoardDefaults `json:"defaults,omitempty"`
	CreatedTs   int64         `json:"createdTs"`
	UpdatedTs   int64         `json:"updatedTs"`
}

// Clone returns a copy safe to hand out to readers.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	return &out
}

// CreateBoard is the parameter set for creating a board. Theme becomes the
// root node's content; when empty the title stands in.
type CreateBoard struct {
	Title    string
	Theme    string
	Defaults BoardDefaults
}

// UpdateBoard is the partial-update parameter set. Nil fields are untouched.
type UpdateBoard struct {
	ID          string
	Title       *string
	Description *string
	Defaults    *BoardDefaults
}
