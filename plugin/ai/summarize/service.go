package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ramify-app/ramify/plugin/ai"
	"github.com/ramify-app/ramify/store"
)

const summaryPrompt = `Summarize the following exploration board entries.

## Board theme
%s

## Entries
%s

## Requirements
1. Weave the entries into a coherent overview of the discussion so far.
2. Lead with the main line of inquiry, then notable side threads.
3. Preserve conclusions, decisions and open questions.
4. Write flowing prose of at most 300 words, in the language of the entries.
5. Return only the summary text.`

// ErrNothingToSummarize is returned when the selected scope holds no
// summarizable nodes.
var ErrNothingToSummarize = errors.New("nothing to summarize")

// Request selects what to summarize and how to call the provider.
type Request struct {
	// Scope is board (every non-root node) or nodeSubtree (the descendant
	// closure of TargetNodeID, inclusive).
	Scope        store.SummaryScope
	TargetNodeID string
	// Model, Temperature and MaxTokens pass through to the chat call; zero
	// values fall back to the provider configuration.
	Model       string
	Temperature float32
	MaxTokens   int
	// Limit overrides DefaultLimit when positive.
	Limit int
}

// Service generates summaries over board graphs.
type Service struct {
	llm ai.LLMService
}

// NewService creates a summarizer on top of a chat service.
func NewService(llm ai.LLMService) *Service {
	return &Service{llm: llm}
}

// Generate ranks the scope's nodes, renders the briefing and asks the model
// for a summary. Placeholder and root nodes never feed the briefing; the
// board theme travels in the prompt header instead.
func (s *Service) Generate(ctx context.Context, graph *store.BoardGraph, req *Request) (*ai.ChatResult, error) {
	nodes, err := scopeNodes(graph, req)
	if err != nil {
		return nil, err
	}
	var candidates []*store.Node
	for _, node := range nodes {
		if node.IsLoading || node.Type == store.NodeTypeRoot {
			continue
		}
		candidates = append(candidates, node)
	}
	selected := SelectTop(candidates, req.Limit)
	if len(selected) == 0 {
		return nil, ErrNothingToSummarize
	}

	theme := ""
	if root := graph.Root(); root != nil {
		theme = strings.TrimSpace(root.Content)
	}
	if theme == "" {
		theme = graph.Board().Title
	}

	prompt := fmt.Sprintf(summaryPrompt, theme, RenderBriefing(selected))
	result, err := s.llm.Chat(ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}}, &ai.ChatOptions{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	result.Content = strings.TrimSpace(result.Content)
	return result, nil
}

// scopeNodes resolves the request scope to its candidate nodes.
func scopeNodes(graph *store.BoardGraph, req *Request) ([]*store.Node, error) {
	switch req.Scope {
	case store.SummaryScopeBoard:
		return graph.ListNodes(), nil
	case store.SummaryScopeNodeSubtree:
		if req.TargetNodeID == "" {
			return nil, fmt.Errorf("summary scope %s needs a target node", req.Scope)
		}
		return graph.Subtree(req.TargetNodeID)
	default:
		return nil, fmt.Errorf("unknown summary scope %q", req.Scope)
	}
}
