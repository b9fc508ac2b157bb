package store

import "context"

// BoardDocuments bundles the documents making up one board on disk: the
// board descriptor, the full node list and the summary history.
type BoardDocuments struct {
	Board     *Board
	Nodes     []*Node
	Summaries []*Summary
}

// Driver is the persistence backend. Implementations store whole documents;
// the fine-grained graph operations all happen in memory and the store
// writes complete snapshots back.
type Driver interface {
	// Board documents.
	ListBoards(ctx context.Context) ([]*Board, error)
	LoadBoard(ctx context.Context, boardID string) (*BoardDocuments, error)
	SaveBoard(ctx context.Context, docs *BoardDocuments) error
	DeleteBoard(ctx context.Context, boardID string) error

	// Global settings document. LoadSettings returns (nil, nil) when no
	// settings have been saved yet.
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings *Settings) error

	Close() error
}
