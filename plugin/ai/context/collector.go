// Package context assembles the conversation history sent to a model before
// a chat call. It walks the board graph upward from a start node, renders the
// main lineage as ordered chat turns and flattens every auxiliary lineage
// into a single trailing related-discussion message.
package context

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ramify-app/ramify/plugin/ai"
	"github.com/ramify-app/ramify/store"
)

// NodeSource yields nodes by id. *store.BoardGraph satisfies it; returned
// nodes must be safe for the collector to hold across the walk.
type NodeSource interface {
	GetNode(id string) (*store.Node, bool)
}

// Collector builds chat context from a node source.
type Collector struct {
	source NodeSource
}

// NewCollector creates a collector over the given node source.
func NewCollector(source NodeSource) *Collector {
	return &Collector{source: source}
}

// SubChain is one auxiliary lineage contributed by a sub-parent of the start
// node. NodeIDs runs oldest-first, starts at the sub-parent itself and stops
// before the merge point, the first ancestor the main chain already covers.
// A sub-parent that sits on the main chain contributes no chain at all.
type SubChain struct {
	SubParentID string
	NodeIDs     []string
	Messages    []ai.Message
}

// Result is one collected context. Messages is the assembled history: the
// main chain oldest-first, then at most one system message carrying all
// non-empty sub-chains. The start node itself is never part of it.
type Result struct {
	Messages []ai.Message
	// MainIDs is the walked main chain, oldest-first, excluding the start
	// node. Placeholder nodes stay on the chain even though they render no
	// message.
	MainIDs   []string
	SubChains []SubChain
}

// Collect builds the conversation history for the parents of startID. The
// start node is deliberately excluded: callers append its own content as the
// final user turn. Stale parent ids left behind by partial deletes are
// skipped silently.
func (c *Collector) Collect(startID string) (*Result, error) {
	start, ok := c.source.GetNode(startID)
	if !ok {
		return nil, fmt.Errorf("collect context for %s: %w", startID, store.ErrNodeNotFound)
	}

	// The visited set seeds with the start node so a cycle leading back to
	// it terminates, and so sub-chains treat it as already represented.
	mainSeen := map[string]bool{startID: true}
	var mainIDs []string
	cur := start.MainParentID()
	for cur != "" && !mainSeen[cur] {
		node, ok := c.source.GetNode(cur)
		if !ok {
			break
		}
		mainSeen[cur] = true
		mainIDs = append(mainIDs, cur)
		cur = node.MainParentID()
	}
	slices.Reverse(mainIDs)

	messages := make([]ai.Message, 0, len(mainIDs)+1)
	for _, id := range mainIDs {
		node, ok := c.source.GetNode(id)
		if !ok {
			continue
		}
		if msg, ok := nodeMessage(node); ok {
			messages = append(messages, msg)
		}
	}

	var subChains []SubChain
	for i, parentID := range start.ParentIDs {
		if i == 0 {
			continue
		}
		chain := c.walkSubChain(parentID, mainSeen)
		if len(chain.NodeIDs) == 0 {
			continue
		}
		subChains = append(subChains, chain)
	}

	if block := renderRelated(subChains); block != "" {
		messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: block})
	}

	return &Result{Messages: messages, MainIDs: mainIDs, SubChains: subChains}, nil
}

// walkSubChain follows the main-parent chain from one sub-parent, inclusive,
// until it hits the main chain or runs out of ancestors. Sub-parent links may
// close cycles in the full graph, so every chain keeps its own visited set.
func (c *Collector) walkSubChain(subParentID string, mainSeen map[string]bool) SubChain {
	chain := SubChain{SubParentID: subParentID}
	visited := make(map[string]bool)
	cur := subParentID
	for cur != "" && !visited[cur] && !mainSeen[cur] {
		node, ok := c.source.GetNode(cur)
		if !ok {
			break
		}
		visited[cur] = true
		chain.NodeIDs = append(chain.NodeIDs, cur)
		cur = node.MainParentID()
	}
	slices.Reverse(chain.NodeIDs)

	for _, id := range chain.NodeIDs {
		node, ok := c.source.GetNode(id)
		if !ok {
			continue
		}
		if msg, ok := nodeMessage(node); ok {
			chain.Messages = append(chain.Messages, msg)
		}
	}
	return chain
}

// nodeMessage maps one walked node to a chat turn. Placeholder nodes and
// nodes with nothing to say map to no turn.
func nodeMessage(node *store.Node) (ai.Message, bool) {
	if node.IsLoading {
		return ai.Message{}, false
	}
	switch node.Type {
	case store.NodeTypeRoot:
		theme := strings.TrimSpace(node.Content)
		if theme == "" {
			theme = strings.TrimSpace(node.Title)
		}
		if theme == "" {
			return ai.Message{}, false
		}
		return ai.Message{Role: ai.RoleSystem, Content: "Board theme: " + theme}, true
	case store.NodeTypeMessage:
		content := strings.TrimSpace(node.Content)
		if content == "" {
			return ai.Message{}, false
		}
		role := string(node.Role)
		if role == "" {
			role = ai.RoleUser
		}
		return ai.Message{Role: role, Content: content}, true
	case store.NodeTypeNote:
		body := titledBody(node)
		if body == "" {
			return ai.Message{}, false
		}
		return ai.Message{Role: ai.RoleSystem, Content: "[note] " + body}, true
	case store.NodeTypeTopic:
		label := strings.TrimSpace(node.Title)
		if label == "" {
			label = strings.TrimSpace(node.Content)
		}
		if label == "" {
			return ai.Message{}, false
		}
		return ai.Message{Role: ai.RoleSystem, Content: "[topic] " + label}, true
	}
	return ai.Message{}, false
}

// titledBody renders "title: content", degrading to whichever side is
// present.
func titledBody(node *store.Node) string {
	title := strings.TrimSpace(node.Title)
	content := strings.TrimSpace(node.Content)
	switch {
	case title != "" && content != "":
		return title + ": " + content
	case title != "":
		return title
	default:
		return content
	}
}

const relatedHeader = "Related discussion merged into this thread, for reference only:"

// renderRelated flattens the sub-chains into the single trailing system
// message. Keeping auxiliary turns out of the top-level message list
// preserves user/assistant alternation on the main thread for providers that
// enforce it.
func renderRelated(chains []SubChain) string {
	var sb strings.Builder
	threads := 0
	for _, chain := range chains {
		if len(chain.Messages) == 0 {
			continue
		}
		threads++
		fmt.Fprintf(&sb, "\n\n[thread %d]", threads)
		for _, msg := range chain.Messages {
			sb.WriteString("\n")
			// System turns already label themselves via their [note] and
			// [topic] prefixes.
			if msg.Role != ai.RoleSystem {
				sb.WriteString(msg.Role)
				sb.WriteString(": ")
			}
			sb.WriteString(msg.Content)
		}
	}
	if threads == 0 {
		return ""
	}
	return relatedHeader + sb.String()
}
