package v1

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ramify-app/ramify/plugin/ai"
	"github.com/ramify-app/ramify/plugin/ai/summarize"
	"github.com/ramify-app/ramify/store"
)

// CreateSummaryRequest selects what to summarize. Scope defaults to board;
// nodeSubtree additionally needs a target node.
type CreateSummaryRequest struct {
	Scope        store.SummaryScope `json:"scope"`
	TargetNodeID string             `json:"targetNodeId"`
	Model        string             `json:"model"`
	Temperature  float32            `json:"temperature"`
	MaxTokens    int                `json:"maxTokens"`
}

// SummaryResponse carries one stored summary plus the call accounting.
type SummaryResponse struct {
	Summary *store.Summary `json:"summary"`
	Usage   *UsageResponse `json:"usage,omitempty"`
}

// ListSummariesResponse lists stored summaries, oldest first.
type ListSummariesResponse struct {
	Summaries []*store.Summary `json:"summaries"`
}

// CreateSummary generates a summary over the selected scope and appends it
// to the board's summary history.
// POST /api/v1/boards/:board/summaries
func (s *APIV1Service) CreateSummary(c echo.Context) error {
	request := &CreateSummaryRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed summary request")
	}
	if request.Scope == "" {
		request.Scope = store.SummaryScopeBoard
	}
	switch request.Scope {
	case store.SummaryScopeBoard:
	case store.SummaryScopeNodeSubtree:
		if request.TargetNodeID == "" {
			return respondInvalid(c, "nodeSubtree summaries need a targetNodeId")
		}
	default:
		return respondInvalid(c, "scope must be board or nodeSubtree")
	}

	boardID := c.Param("board")
	_, done := s.beginOperation(c, "summary", boardID)
	response, err := s.createSummary(c.Request().Context(), boardID, request)
	done(err)
	if err != nil {
		if stderrors.Is(err, summarize.ErrNothingToSummarize) {
			return respondInvalid(c, err.Error())
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, response)
}

func (s *APIV1Service) createSummary(ctx context.Context, boardID string, request *CreateSummaryRequest) (*SummaryResponse, error) {
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	llm, err := s.llmService(settings, graph.Board())
	if err != nil {
		return nil, err
	}

	if err := s.generationGate.Acquire(ctx, 1); err != nil {
		return nil, ai.Canceled(err)
	}
	defer s.generationGate.Release(1)

	result, err := summarize.NewService(llm).Generate(ctx, graph, &summarize.Request{
		Scope:        request.Scope,
		TargetNodeID: request.TargetNodeID,
		Model:        request.Model,
		Temperature:  request.Temperature,
		MaxTokens:    request.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	s.usageTracker.Record(boardID, "summary", result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	summary, err := graph.AddSummary(request.Scope, request.TargetNodeID, result.Content, result.Model)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return &SummaryResponse{Summary: summary, Usage: usageResponse(result.Usage)}, nil
}

// ListSummaries lists the board's summary history, optionally narrowed by
// scope and target node.
// GET /api/v1/boards/:board/summaries
func (s *APIV1Service) ListSummaries(c echo.Context) error {
	graph, err := s.Store.GetBoard(c.Request().Context(), c.Param("board"))
	if err != nil {
		return respondError(c, err)
	}

	find := &store.FindSummary{}
	if scope := c.QueryParam("scope"); scope != "" {
		summaryScope := store.SummaryScope(scope)
		if summaryScope != store.SummaryScopeBoard && summaryScope != store.SummaryScopeNodeSubtree {
			return respondInvalid(c, "scope must be board or nodeSubtree")
		}
		find.Scope = &summaryScope
	}
	if target := c.QueryParam("targetNodeId"); target != "" {
		find.TargetNodeID = &target
	}
	return c.JSON(http.StatusOK, &ListSummariesResponse{Summaries: graph.ListSummaries(find)})
}
