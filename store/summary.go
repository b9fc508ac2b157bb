package store

import (
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// SummaryScope distinguishes whole-board summaries from subtree ones.
type SummaryScope string

const (
	SummaryScopeBoard       SummaryScope = "board"
	SummaryScopeNodeSubtree SummaryScope = "nodeSubtree"
)

// Summary is one generated briefing, kept as history rather than replaced in
// place. TargetNodeID is set only for the nodeSubtree scope.
type Summary struct {
	ID           string       `json:"id"`
	Scope        SummaryScope `json:"scope"`
	TargetNodeID string       `json:"targetNodeId,omitempty"`
	Content      string       `json:"content"`
	Model        string       `json:"model,omitempty"`
	CreatedTs    int64        `json:"createdTs"`
}

// Clone returns a copy safe to hand out to readers.
func (s *Summary) Clone() *Summary {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// FindSummary filters summary listings. Nil fields match everything.
type FindSummary struct {
	Scope        *SummaryScope
	TargetNodeID *string
}

// AddSummary appends a summary to the board's history.
func (g *BoardGraph) AddSummary(scope SummaryScope, targetNodeID, content, model string) (*Summary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch scope {
	case SummaryScopeBoard:
		targetNodeID = ""
	case SummaryScopeNodeSubtree:
		if _, ok := g.nodes[targetNodeID]; !ok {
			return nil, errors.Wrapf(ErrNodeNotFound, "summary target %s", targetNodeID)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidOperation, "unknown summary scope %s", scope)
	}

	now := time.Now().Unix()
	summary := &Summary{
		ID:           shortuuid.New(),
		Scope:        scope,
		TargetNodeID: targetNodeID,
		Content:      content,
		Model:        model,
		CreatedTs:    now,
	}
	g.summaries = append(g.summaries, summary)
	g.board.UpdatedTs = now
	return summary.Clone(), nil
}

// ListSummaries returns matching summaries, oldest first.
func (g *BoardGraph) ListSummaries(find *FindSummary) []*Summary {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := []*Summary{}
	for _, s := range g.summaries {
		if find != nil {
			if find.Scope != nil && s.Scope != *find.Scope {
				continue
			}
			if find.TargetNodeID != nil && s.TargetNodeID != *find.TargetNodeID {
				continue
			}
		}
		out = append(out, s.Clone())
	}
	return out
}

