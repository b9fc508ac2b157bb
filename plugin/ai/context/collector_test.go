package context

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramify-app/ramify/plugin/ai"
	"github.com/ramify-app/ramify/store"
)

type nodeMap map[string]*store.Node

func (m nodeMap) GetNode(id string) (*store.Node, bool) {
	node, ok := m[id]
	return node, ok
}

func testNode(id string, typ store.NodeType, role store.NodeRole, content string, parents ...string) *store.Node {
	return &store.Node{
		ID:        id,
		Type:      typ,
		Role:      role,
		Content:   content,
		ParentIDs: parents,
	}
}

// linearBoard builds R <- Q1 <- A1 <- Q2, all main links.
func linearBoard() nodeMap {
	return nodeMap{
		"R":  testNode("R", store.NodeTypeRoot, store.NodeRoleSystem, "Space exploration"),
		"Q1": testNode("Q1", store.NodeTypeMessage, store.NodeRoleUser, "Why are rockets staged?", "R"),
		"A1": testNode("A1", store.NodeTypeMessage, store.NodeRoleAssistant, "Dropping spent mass improves the mass ratio.", "Q1"),
		"Q2": testNode("Q2", store.NodeTypeMessage, store.NodeRoleUser, "How many stages are typical?", "A1"),
	}
}

func TestCollector_MainChain(t *testing.T) {
	t.Run("linear chain renders oldest first and excludes the start", func(t *testing.T) {
		result, err := NewCollector(linearBoard()).Collect("Q2")
		require.NoError(t, err)

		assert.Equal(t, []string{"R", "Q1", "A1"}, result.MainIDs)
		require.Len(t, result.Messages, 3)
		assert.Equal(t, ai.Message{Role: ai.RoleSystem, Content: "Board theme: Space exploration"}, result.Messages[0])
		assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "Why are rockets staged?"}, result.Messages[1])
		assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "Dropping spent mass improves the mass ratio."}, result.Messages[2])
		for _, msg := range result.Messages {
			assert.NotContains(t, msg.Content, "How many stages are typical?")
		}
	})

	t.Run("root start yields empty context", func(t *testing.T) {
		result, err := NewCollector(linearBoard()).Collect("R")
		require.NoError(t, err)
		assert.Empty(t, result.Messages)
		assert.Empty(t, result.MainIDs)
		assert.Empty(t, result.SubChains)
	})

	t.Run("placeholder stays on the chain but renders no turn", func(t *testing.T) {
		nodes := linearBoard()
		nodes["A1"].IsLoading = true

		result, err := NewCollector(nodes).Collect("Q2")
		require.NoError(t, err)
		assert.Equal(t, []string{"R", "Q1", "A1"}, result.MainIDs)
		require.Len(t, result.Messages, 2)
		assert.Equal(t, "Why are rockets staged?", result.Messages[1].Content)
	})

	t.Run("stale main parent ends the walk silently", func(t *testing.T) {
		nodes := nodeMap{
			"Q": testNode("Q", store.NodeTypeMessage, store.NodeRoleUser, "orphaned", "gone"),
		}
		result, err := NewCollector(nodes).Collect("Q")
		require.NoError(t, err)
		assert.Empty(t, result.Messages)
		assert.Empty(t, result.MainIDs)
	})

	t.Run("cycle on the main chain terminates", func(t *testing.T) {
		nodes := nodeMap{
			"X": testNode("X", store.NodeTypeMessage, store.NodeRoleUser, "x", "Y"),
			"Y": testNode("Y", store.NodeTypeMessage, store.NodeRoleAssistant, "y", "X"),
			"S": testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "s", "X"),
		}
		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		// X then Y, and the walk stops when Y points back at X.
		assert.Equal(t, []string{"Y", "X"}, result.MainIDs)
	})

	t.Run("unknown start node", func(t *testing.T) {
		_, err := NewCollector(linearBoard()).Collect("nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNodeNotFound)
	})
}

func TestCollector_SubChains(t *testing.T) {
	// forkedBoard:
	//   R <- Q1 <- A1 <- S   (main lineage)
	//              A1 <- Q2 <- A2, and S's second parent is A2.
	forkedBoard := func() nodeMap {
		nodes := linearBoard()
		nodes["Q2"] = testNode("Q2", store.NodeTypeMessage, store.NodeRoleUser, "What about boosters?", "A1")
		nodes["A2"] = testNode("A2", store.NodeTypeMessage, store.NodeRoleAssistant, "Boosters are stage zero.", "Q2")
		nodes["S"] = testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "Compare both.", "A1", "A2")
		return nodes
	}

	t.Run("fork contributes its branch up to the merge point", func(t *testing.T) {
		result, err := NewCollector(forkedBoard()).Collect("S")
		require.NoError(t, err)

		require.Len(t, result.SubChains, 1)
		chain := result.SubChains[0]
		assert.Equal(t, "A2", chain.SubParentID)
		// Oldest first, merge point A1 excluded.
		assert.Equal(t, []string{"Q2", "A2"}, chain.NodeIDs)

		require.Len(t, result.Messages, 4)
		related := result.Messages[3]
		assert.Equal(t, ai.RoleSystem, related.Role)
		assert.True(t, strings.HasPrefix(related.Content, relatedHeader))
		assert.Contains(t, related.Content, "user: What about boosters?")
		assert.Contains(t, related.Content, "assistant: Boosters are stage zero.")
		// The merge point's content lives in the main chain only.
		assert.NotContains(t, related.Content, "mass ratio")
	})

	t.Run("sub-parent on the main chain contributes nothing", func(t *testing.T) {
		nodes := linearBoard()
		nodes["S"] = testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "follow-up", "A1", "Q1")

		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		assert.Empty(t, result.SubChains)
		require.Len(t, result.Messages, 3)
		assert.NotContains(t, result.Messages[2].Content, relatedHeader)
	})

	t.Run("sub-parent cycle terminates with a finite chain", func(t *testing.T) {
		nodes := linearBoard()
		nodes["X"] = testNode("X", store.NodeTypeMessage, store.NodeRoleUser, "loop x", "Y")
		nodes["Y"] = testNode("Y", store.NodeTypeMessage, store.NodeRoleAssistant, "loop y", "X")
		nodes["S"] = testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "into the loop", "A1", "X")

		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		require.Len(t, result.SubChains, 1)
		assert.Len(t, result.SubChains[0].NodeIDs, 2)
	})

	t.Run("stale sub-parent id is skipped", func(t *testing.T) {
		nodes := linearBoard()
		nodes["S"] = testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "follow-up", "A1", "ghost")

		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		assert.Empty(t, result.SubChains)
	})

	t.Run("each fork becomes its own thread", func(t *testing.T) {
		nodes := forkedBoard()
		nodes["N1"] = testNode("N1", store.NodeTypeNote, store.NodeRoleSystem, "staging is about mass ratio", "A1")
		nodes["N1"].Title = "Key idea"
		nodes["S"].ParentIDs = []string{"A1", "A2", "N1"}

		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		require.Len(t, result.SubChains, 2)

		related := result.Messages[len(result.Messages)-1]
		assert.Contains(t, related.Content, "[thread 1]")
		assert.Contains(t, related.Content, "[thread 2]")
		assert.Contains(t, related.Content, "[note] Key idea: staging is about mass ratio")
	})

	t.Run("chain of only placeholders emits no related message", func(t *testing.T) {
		nodes := linearBoard()
		nodes["P"] = testNode("P", store.NodeTypeMessage, store.NodeRoleAssistant, "pending", "A1")
		nodes["P"].IsLoading = true
		nodes["S"] = testNode("S", store.NodeTypeMessage, store.NodeRoleUser, "follow-up", "A1", "P")

		result, err := NewCollector(nodes).Collect("S")
		require.NoError(t, err)
		// The walk records the chain but renders nothing from it.
		require.Len(t, result.SubChains, 1)
		assert.Empty(t, result.SubChains[0].Messages)
		require.Len(t, result.Messages, 3)
		for _, msg := range result.Messages {
			assert.NotContains(t, msg.Content, relatedHeader)
		}
	})
}

func TestCollector_NodeMessage(t *testing.T) {
	tests := []struct {
		name string
		node *store.Node
		want ai.Message
		ok   bool
	}{
		{
			name: "root carries the board theme",
			node: testNode("R", store.NodeTypeRoot, store.NodeRoleSystem, "Deep sea life"),
			want: ai.Message{Role: ai.RoleSystem, Content: "Board theme: Deep sea life"},
			ok:   true,
		},
		{
			name: "root falls back to its title",
			node: &store.Node{ID: "R", Type: store.NodeTypeRoot, Title: "Deep sea life"},
			want: ai.Message{Role: ai.RoleSystem, Content: "Board theme: Deep sea life"},
			ok:   true,
		},
		{
			name: "user message keeps its role",
			node: testNode("Q", store.NodeTypeMessage, store.NodeRoleUser, "why?"),
			want: ai.Message{Role: ai.RoleUser, Content: "why?"},
			ok:   true,
		},
		{
			name: "assistant message keeps its role",
			node: testNode("A", store.NodeTypeMessage, store.NodeRoleAssistant, "because"),
			want: ai.Message{Role: ai.RoleAssistant, Content: "because"},
			ok:   true,
		},
		{
			name: "empty message renders nothing",
			node: testNode("Q", store.NodeTypeMessage, store.NodeRoleUser, "   "),
			ok:   false,
		},
		{
			name: "note with title and content",
			node: &store.Node{ID: "N", Type: store.NodeTypeNote, Title: "Anglerfish", Content: "lure bioluminescence"},
			want: ai.Message{Role: ai.RoleSystem, Content: "[note] Anglerfish: lure bioluminescence"},
			ok:   true,
		},
		{
			name: "note without title",
			node: testNode("N", store.NodeTypeNote, store.NodeRoleSystem, "pressure adaptations"),
			want: ai.Message{Role: ai.RoleSystem, Content: "[note] pressure adaptations"},
			ok:   true,
		},
		{
			name: "topic prefers its title",
			node: &store.Node{ID: "T", Type: store.NodeTypeTopic, Title: "Bioluminescence", Content: "long description"},
			want: ai.Message{Role: ai.RoleSystem, Content: "[topic] Bioluminescence"},
			ok:   true,
		},
		{
			name: "topic falls back to content",
			node: testNode("T", store.NodeTypeTopic, store.NodeRoleSystem, "Hydrothermal vents"),
			want: ai.Message{Role: ai.RoleSystem, Content: "[topic] Hydrothermal vents"},
			ok:   true,
		},
		{
			name: "loading placeholder renders nothing",
			node: &store.Node{ID: "P", Type: store.NodeTypeMessage, Role: store.NodeRoleAssistant, Content: "pending", IsLoading: true},
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nodeMessage(tt.node)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCollector_AgainstBoardGraph(t *testing.T) {
	graph := store.NewBoardGraph(
		&store.Board{ID: "b1", RootNodeID: "R", Title: "Gardening"},
		[]*store.Node{
			testNode("R", store.NodeTypeRoot, store.NodeRoleSystem, "Gardening"),
			testNode("Q1", store.NodeTypeMessage, store.NodeRoleUser, "When to prune roses?", "R"),
			testNode("A1", store.NodeTypeMessage, store.NodeRoleAssistant, "Late winter, before new growth.", "Q1"),
		},
		nil,
	)

	result, err := NewCollector(graph).Collect("A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"R", "Q1"}, result.MainIDs)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "Board theme: Gardening", result.Messages[0].Content)
	assert.Equal(t, ai.RoleUser, result.Messages[1].Role)
}
