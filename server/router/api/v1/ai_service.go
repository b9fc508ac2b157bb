package v1

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ramify-app/ramify/plugin/ai"
	aicontext "github.com/ramify-app/ramify/plugin/ai/context"
	"github.com/ramify-app/ramify/plugin/markdown"
	"github.com/ramify-app/ramify/server/internal/observability"
	"github.com/ramify-app/ramify/store"
)

// AskRequest tunes answer generation for one call. Zero values fall back to
// the board defaults, then the settings document.
type AskRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// UsageResponse is the provider's token accounting for one call.
type UsageResponse struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

func usageResponse(u ai.Usage) *UsageResponse {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	return &UsageResponse{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// AskResponse carries the answered question, the new answer node and any
// topics extracted from the answer.
type AskResponse struct {
	Question *store.Node    `json:"question"`
	Answer   *store.Node    `json:"answer"`
	Topics   []*store.Node  `json:"topics,omitempty"`
	Model    string         `json:"model,omitempty"`
	Usage    *UsageResponse `json:"usage,omitempty"`
}

// ExtractTopicsRequest tunes explicit topic extraction.
type ExtractTopicsRequest struct {
	MaxTopics int `json:"maxTopics"`
}

// ExtractTopicsResponse lists the topic nodes hung off the source node. An
// unparseable model payload degrades to an empty list, not an error.
type ExtractTopicsResponse struct {
	Topics []*store.Node  `json:"topics"`
	Model  string         `json:"model,omitempty"`
	Usage  *UsageResponse `json:"usage,omitempty"`
}

// GenerateNoteResponse carries the note node distilled from the source.
type GenerateNoteResponse struct {
	Note  *store.Node    `json:"note"`
	Model string         `json:"model,omitempty"`
	Usage *UsageResponse `json:"usage,omitempty"`
}

// AskQuestion generates an answer for a question node: collect the lineage
// context, call the provider behind a placeholder answer node, then
// optionally extract topics from the fresh answer. The placeholder is
// updated in place on success and deleted on failure, so a failed call
// leaves the graph as it was.
// POST /api/v1/boards/:board/nodes/:node/ask
func (s *APIV1Service) AskQuestion(c echo.Context) error {
	request := &AskRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed ask request")
	}

	boardID := c.Param("board")
	reqCtx, done := s.beginOperation(c, "ask", boardID)
	response, err := s.askQuestion(c.Request().Context(), reqCtx, boardID, c.Param("node"), request)
	done(err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) askQuestion(ctx context.Context, reqCtx *observability.RequestContext, boardID, questionID string, request *AskRequest) (*AskResponse, error) {
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	// Configuration problems surface here, before any graph mutation and
	// before any network traffic.
	llm, err := s.llmService(settings, graph.Board())
	if err != nil {
		return nil, err
	}

	if err := s.generationGate.Acquire(ctx, 1); err != nil {
		return nil, ai.Canceled(err)
	}
	defer s.generationGate.Release(1)

	question, ok := graph.GetNode(questionID)
	if !ok {
		return nil, errors.Wrapf(store.ErrNodeNotFound, "node %s", questionID)
	}
	if !question.IsQuestion() {
		return nil, errors.Wrapf(store.ErrInvalidOperation, "node %s is not a question", questionID)
	}
	if strings.TrimSpace(question.Content) == "" {
		return nil, errors.Wrapf(store.ErrInvalidOperation, "question %s has no content", questionID)
	}
	state, err := graph.QuestionEditState(questionID)
	if err != nil {
		return nil, err
	}
	switch state {
	case store.QuestionStateDuplicateOnly:
		return nil, errors.Wrapf(store.ErrInvalidOperation,
			"question %s already has a discussion below it, duplicate it instead", questionID)
	case store.QuestionStateCanResend:
		// A resend replaces the stale answers: every existing answer
		// closure goes away before the new one is generated.
		for _, childID := range question.ChildrenIDs {
			child, ok := graph.GetNode(childID)
			if !ok || !child.IsAnswer() {
				continue
			}
			if _, err := graph.DeleteNode(childID); err != nil {
				return nil, err
			}
		}
	}

	// The placeholder keeps the graph consistent and navigable while the
	// call is in flight. Question and answer cross-reference each other
	// through the pair link.
	placeholder, err := graph.CreateNode(&store.CreateNode{
		Type:      store.NodeTypeMessage,
		Role:      store.NodeRoleAssistant,
		ParentIDs: []string{questionID},
		QAPairID:  questionID,
		IsLoading: true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := graph.UpdateNode(&store.UpdateNode{ID: questionID, QAPairID: &placeholder.ID}); err != nil {
		return nil, err
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return nil, err
	}

	collected, err := aicontext.NewCollector(graph).Collect(questionID)
	if err != nil {
		return nil, err
	}
	messages := append(collected.Messages, ai.Message{Role: ai.RoleUser, Content: question.Content})
	reqCtx.Debug("context collected",
		slog.Int("main_chain", len(collected.MainIDs)),
		slog.Int("sub_chains", len(collected.SubChains)),
		slog.Int("messages", len(messages)))

	result, chatErr := llm.Chat(ctx, messages, &ai.ChatOptions{
		Model:       request.Model,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if chatErr != nil {
		// Roll the graph back. Deleting the placeholder also scrubs the
		// question's dangling pair link.
		if _, err := graph.DeleteNode(placeholder.ID); err != nil {
			reqCtx.Warn("failed to remove placeholder after provider failure",
				slog.String("node_id", placeholder.ID), slog.String("error", err.Error()))
		}
		if err := s.Store.SaveBoard(ctx, boardID); err != nil {
			reqCtx.Warn("failed to persist placeholder rollback", slog.String("error", err.Error()))
		}
		return nil, chatErr
	}
	s.usageTracker.Record(boardID, "ask", result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	loading := false
	answer, err := graph.UpdateNode(&store.UpdateNode{
		ID:        placeholder.ID,
		Content:   &result.Content,
		IsLoading: &loading,
	})
	if err != nil {
		return nil, err
	}

	response := &AskResponse{
		Answer: answer,
		Model:  result.Model,
		Usage:  usageResponse(result.Usage),
	}
	if settings.AutoExtractTopics {
		response.Topics = s.extractTopicNodes(ctx, reqCtx, graph, llm, boardID, answer, settings.MaxTopicsPerExtract)
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return nil, err
	}
	response.Question, _ = graph.GetNode(questionID)
	return response, nil
}

// extractTopicNodes asks the model for the topics in an answer and hangs
// them off it as topic children. The extraction runs after the answer call
// on the same sequencing gate and is best-effort: any failure is logged and
// the answer stands on its own.
func (s *APIV1Service) extractTopicNodes(ctx context.Context, reqCtx *observability.RequestContext, graph *store.BoardGraph, llm ai.LLMService, boardID string, answer *store.Node, maxTopics int) []*store.Node {
	result, err := ai.NewTopicExtractor(llm).Extract(ctx, answer.Content, maxTopics)
	if err != nil {
		reqCtx.Warn("topic extraction failed", slog.String("error", err.Error()))
		return nil
	}
	s.usageTracker.Record(boardID, "topics", result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)
	return s.createTopicNodes(reqCtx, graph, answer.ID, result.Topics)
}

func (s *APIV1Service) createTopicNodes(reqCtx *observability.RequestContext, graph *store.BoardGraph, parentID string, topics []ai.Topic) []*store.Node {
	nodes := make([]*store.Node, 0, len(topics))
	for _, topic := range topics {
		var metadata *store.NodeMetadata
		if topic.Importance != 0 || len(topic.Tags) > 0 {
			metadata = &store.NodeMetadata{Importance: topic.Importance, Tags: topic.Tags}
		}
		node, err := graph.CreateNode(&store.CreateNode{
			Type:      store.NodeTypeTopic,
			Title:     topic.Title,
			Content:   topic.Description,
			ParentIDs: []string{parentID},
			Metadata:  metadata,
		})
		if err != nil {
			reqCtx.Warn("failed to create topic node",
				slog.String("title", topic.Title), slog.String("error", err.Error()))
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// ExtractTopics extracts topics from one node's content and attaches them
// as topic children.
// POST /api/v1/boards/:board/nodes/:node/topics
func (s *APIV1Service) ExtractTopics(c echo.Context) error {
	request := &ExtractTopicsRequest{}
	if err := c.Bind(request); err != nil {
		return respondInvalid(c, "malformed topics request")
	}

	boardID := c.Param("board")
	reqCtx, done := s.beginOperation(c, "topics", boardID)
	response, err := s.extractTopics(c.Request().Context(), reqCtx, boardID, c.Param("node"), request)
	done(err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) extractTopics(ctx context.Context, reqCtx *observability.RequestContext, boardID, nodeID string, request *ExtractTopicsRequest) (*ExtractTopicsResponse, error) {
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	node, ok := graph.GetNode(nodeID)
	if !ok {
		return nil, errors.Wrapf(store.ErrNodeNotFound, "node %s", nodeID)
	}
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	llm, err := s.llmService(settings, graph.Board())
	if err != nil {
		return nil, err
	}
	maxTopics := request.MaxTopics
	if maxTopics <= 0 {
		maxTopics = settings.MaxTopicsPerExtract
	}

	if err := s.generationGate.Acquire(ctx, 1); err != nil {
		return nil, ai.Canceled(err)
	}
	defer s.generationGate.Release(1)

	result, err := ai.NewTopicExtractor(llm).Extract(ctx, node.Content, maxTopics)
	if err != nil {
		if ai.IsCode(err, ai.ErrCodeResponseParse) {
			// An unparseable payload degrades to no topics rather than
			// failing the call; the caller can simply retry.
			reqCtx.Warn("topic payload did not parse, returning no topics")
			return &ExtractTopicsResponse{Topics: []*store.Node{}}, nil
		}
		return nil, err
	}
	s.usageTracker.Record(boardID, "topics", result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)

	topics := s.createTopicNodes(reqCtx, graph, nodeID, result.Topics)
	if len(topics) > 0 {
		if err := s.Store.SaveBoard(ctx, boardID); err != nil {
			return nil, err
		}
	}
	return &ExtractTopicsResponse{
		Topics: topics,
		Model:  result.Model,
		Usage:  usageResponse(result.Usage),
	}, nil
}

// GenerateNote distills a node's content into a note child.
// POST /api/v1/boards/:board/nodes/:node/note
func (s *APIV1Service) GenerateNote(c echo.Context) error {
	boardID := c.Param("board")
	_, done := s.beginOperation(c, "note", boardID)
	response, err := s.generateNote(c.Request().Context(), boardID, c.Param("node"))
	done(err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, response)
}

func (s *APIV1Service) generateNote(ctx context.Context, boardID, nodeID string) (*GenerateNoteResponse, error) {
	graph, err := s.Store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	node, ok := graph.GetNode(nodeID)
	if !ok {
		return nil, errors.Wrapf(store.ErrNodeNotFound, "node %s", nodeID)
	}
	if strings.TrimSpace(node.Content) == "" {
		return nil, errors.Wrapf(store.ErrInvalidOperation, "node %s has no content to distill", nodeID)
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

	result, err := ai.NewNoteGenerator(llm).Generate(ctx, node.Content)
	if err != nil {
		return nil, err
	}
	s.usageTracker.Record(boardID, "note", result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)
	if result.Content == "" {
		return nil, ai.ProviderFailed("provider returned an empty note", nil)
	}

	note, err := graph.CreateNode(&store.CreateNode{
		Type:      store.NodeTypeNote,
		Title:     markdown.ExtractTitle(result.Content),
		Content:   result.Content,
		ParentIDs: []string{nodeID},
	})
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return &GenerateNoteResponse{
		Note:  note,
		Model: result.Model,
		Usage: usageResponse(result.Usage),
	}, nil
}

// llmService builds the provider client for one call. The settings document
// supplies the base configuration, board defaults may switch provider and
// model, and the process profile overrides credentials without touching
// disk. Explicit request options still win inside the call itself.
func (s *APIV1Service) llmService(settings *store.Settings, board *store.Board) (ai.LLMService, error) {
	cfg := &ai.Config{
		Provider:    settings.Provider,
		Model:       settings.Model,
		APIKey:      settings.APIKey,
		BaseURL:     settings.BaseURL,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}
	if board != nil {
		if board.Defaults.Provider != "" {
			cfg.Provider = board.Defaults.Provider
		}
		if board.Defaults.Model != "" {
			cfg.Model = board.Defaults.Model
		}
		if board.Defaults.Temperature != 0 {
			cfg.Temperature = board.Defaults.Temperature
		}
	}
	if s.Profile.AIProvider != "" {
		cfg.Provider = s.Profile.AIProvider
	}
	if s.Profile.AIAPIKey != "" {
		cfg.APIKey = s.Profile.AIAPIKey
	}
	if s.Profile.AIBaseURL != "" {
		cfg.BaseURL = s.Profile.AIBaseURL
	}
	if s.Profile.AIModel != "" {
		cfg.Model = s.Profile.AIModel
	}
	if cfg.BaseURL == "" {
		// A known provider's endpoint comes from the catalog; the hosted
		// OpenAI default lives in the client itself.
		if catalog, err := s.catalog(); err == nil {
			if provider, ok := catalog.Provider(cfg.Provider); ok && provider.BaseURL != "" {
				cfg.BaseURL = provider.BaseURL
			}
		}
	}
	return ai.NewLLMService(cfg)
}

const catalogCacheKey = "catalog"

// catalog returns the model catalog, reading through a short-lived cache so
// an override file edit shows up without a restart.
func (s *APIV1Service) catalog() (*ai.Catalog, error) {
	if v, ok := s.catalogCache.Get(catalogCacheKey); ok {
		return v.(*ai.Catalog), nil
	}
	catalog, err := ai.LoadCatalog(filepath.Join(s.Profile.Data, "models.yaml"))
	if err != nil {
		return nil, err
	}
	s.catalogCache.Set(catalogCacheKey, catalog)
	return catalog, nil
}
