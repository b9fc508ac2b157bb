// Package summarize reduces a board's node set to a bounded, ranked briefing
// and generates summary text from it through the chat provider.
package summarize

import (
	"sort"

	"github.com/ramify-app/ramify/store"
)

// Scoring weights. The score is a selection heuristic, not a relevance
// guarantee: pinned nodes dominate everything, curated annotations (notes,
// topics) rank above raw conversation turns, importance orders the rest.
const (
	importanceWeight = 10
	pinBonus         = 100
	noteBonus        = 10
	topicBonus       = 5
)

// DefaultLimit bounds how many nodes feed a single summary.
const DefaultLimit = 20

// Score ranks a node for summary selection.
func Score(node *store.Node) int {
	score := node.EffectiveImportance() * importanceWeight
	if node.Pinned() {
		score += pinBonus
	}
	switch node.Type {
	case store.NodeTypeNote:
		score += noteBonus
	case store.NodeTypeTopic:
		score += topicBonus
	}
	return score
}

// SelectTop returns the limit highest-scoring nodes. The sort is stable, so
// callers passing insertion-ordered nodes get deterministic briefings on
// ties. The input slice is left untouched.
func SelectTop(nodes []*store.Node, limit int) []*store.Node {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranked := append([]*store.Node(nil), nodes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
