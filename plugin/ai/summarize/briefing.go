package summarize

import (
	"fmt"
	"strings"

	"github.com/ramify-app/ramify/plugin/markdown"
	"github.com/ramify-app/ramify/store"
)

const (
	// maxBlockRunes caps each node's contribution to the briefing.
	maxBlockRunes = 300

	blockSeparator = "\n---\n"
)

// RenderBriefing renders the selected nodes into the textual briefing handed
// to the model, one block per node, joined by a visible separator.
func RenderBriefing(nodes []*store.Node) string {
	blocks := make([]string, 0, len(nodes))
	for _, node := range nodes {
		blocks = append(blocks, renderBlock(node))
	}
	return strings.Join(blocks, blockSeparator)
}

// renderBlock emits one node as a header line with its annotations, then the
// plain-text content.
func renderBlock(node *store.Node) string {
	var sb strings.Builder

	title := strings.TrimSpace(node.Title)
	if title == "" {
		title = "untitled"
	}
	fmt.Fprintf(&sb, "[%s] %s", node.Type, title)
	if node.Pinned() {
		sb.WriteString(" (pinned)")
	}
	if imp := node.EffectiveImportance(); imp >= 4 {
		fmt.Fprintf(&sb, " (importance %d)", imp)
	}
	if tags := node.TagList(); len(tags) > 0 {
		fmt.Fprintf(&sb, " #%s", strings.Join(tags, " #"))
	}

	content := strings.TrimSpace(markdown.ExtractText(node.Content))
	if content != "" {
		sb.WriteString("\n")
		sb.WriteString(clipRunes(content, maxBlockRunes))
	}
	return sb.String()
}

// clipRunes truncates on rune boundaries so multi-byte content never splits
// mid-character.
func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
