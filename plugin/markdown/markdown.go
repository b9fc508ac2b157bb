// Package markdown turns node content, which the UI edits as markdown, into
// the plain text the model pipeline works with: context snippets, scoring
// input and derived titles.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// ExtractText renders markdown to plain text. Block elements become lines,
// inline markup is stripped and code blocks keep their content verbatim.
func ExtractText(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(v.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				writeLines(&sb, src, n)
			} else {
				sb.WriteString("\n\n")
			}
		case *ast.AutoLink:
			if entering {
				sb.Write(v.URL(src))
			}
		default:
			// Separate block elements with a blank line; nested blocks
			// produce runs that collapse below.
			if !entering && n.Type() == ast.TypeBlock {
				sb.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(sb.String())
}

// ExtractTitle derives a one-line title: the first heading if there is one,
// otherwise the first non-empty line of the plain text.
func ExtractTitle(source string) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Heading); ok {
			title = nodeText(src, n)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if title != "" {
		return strings.TrimSpace(title)
	}

	for _, line := range strings.Split(ExtractText(source), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func nodeText(src []byte, node ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func writeLines(sb *strings.Builder, src []byte, node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(src))
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, trimmed)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
