package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/ramify-app/ramify/server/internal/errors"
	"github.com/ramify-app/ramify/store"
)

func TestCreateSummary(t *testing.T) {
	ts := newTestService(t)
	stub := newProviderStub(t,
		"The discussion so far circles around pruning timing.",
		"This branch weighs tool hygiene against speed.",
	)
	ts.useProvider(t, stub.url(), false)

	board := ts.createBoard(t, "Summaries", "Orchard care")
	question := ts.createNode(t, board.Board.ID, &CreateNodeRequest{
		Type:      store.NodeTypeMessage,
		Content:   "When should I prune?",
		ParentIDs: []string{board.Board.RootNodeID},
	})
	answer := ts.createNode(t, board.Board.ID, &CreateNodeRequest{
		Type: store.NodeTypeMessage, Role: store.NodeRoleAssistant,
		Content:   "Late winter, with clean tools.",
		ParentIDs: []string{question.ID},
	})

	t.Run("board scope is the default", func(t *testing.T) {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{},
			map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
		response := decodeResponse[SummaryResponse](t, rec)
		require.NotNil(t, response.Summary)
		assert.Equal(t, store.SummaryScopeBoard, response.Summary.Scope)
		assert.Empty(t, response.Summary.TargetNodeID)
		assert.Equal(t, "The discussion so far circles around pruning timing.", response.Summary.Content)
		assert.Equal(t, "gpt-4o-mini", response.Summary.Model)
		require.NotNil(t, response.Usage)
		assert.Equal(t, 19, response.Usage.TotalTokens)

		// The briefing fed to the model carries the theme and the entries.
		prompt := stub.request(0)["messages"].([]any)[0].(map[string]any)["content"].(string)
		assert.Contains(t, prompt, "Orchard care")
		assert.Contains(t, prompt, "When should I prune?")
	})

	t.Run("subtree scope records its target", func(t *testing.T) {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{
			Scope:        store.SummaryScopeNodeSubtree,
			TargetNodeID: answer.ID,
		}, map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
		response := decodeResponse[SummaryResponse](t, rec)
		assert.Equal(t, store.SummaryScopeNodeSubtree, response.Summary.Scope)
		assert.Equal(t, answer.ID, response.Summary.TargetNodeID)
	})

	t.Run("history is persisted with the board", func(t *testing.T) {
		rec := ts.invoke(t, ts.GetBoard, http.MethodGet, "/", nil, map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		detail := decodeResponse[BoardDetailResponse](t, rec)
		assert.Len(t, detail.Summaries, 2)
	})

	t.Run("subtree scope needs a target", func(t *testing.T) {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{
			Scope: store.SummaryScopeNodeSubtree,
		}, map[string]string{"board": board.Board.ID})
		assertErrorCode(t, rec, http.StatusBadRequest, apierrors.CodeInvalidArgument)
	})

	t.Run("unknown scope is rejected", func(t *testing.T) {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{
			Scope: "paragraph",
		}, map[string]string{"board": board.Board.ID})
		assertErrorCode(t, rec, http.StatusBadRequest, apierrors.CodeInvalidArgument)
	})

	t.Run("unknown target is 404", func(t *testing.T) {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{
			Scope:        store.SummaryScopeNodeSubtree,
			TargetNodeID: "missing",
		}, map[string]string{"board": board.Board.ID})
		assertErrorCode(t, rec, http.StatusNotFound, apierrors.CodeNotFound)
	})

	t.Run("an empty board has nothing to summarize", func(t *testing.T) {
		empty := ts.createBoard(t, "Empty", "")
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", &CreateSummaryRequest{},
			map[string]string{"board": empty.Board.ID})
		assertErrorCode(t, rec, http.StatusBadRequest, apierrors.CodeInvalidArgument)
	})
}

func TestListSummaries(t *testing.T) {
	ts := newTestService(t)
	stub := newProviderStub(t, "Board overview.", "Branch overview.")
	ts.useProvider(t, stub.url(), false)

	board := ts.createBoard(t, "History", "")
	note := ts.createNode(t, board.Board.ID, &CreateNodeRequest{
		Type: store.NodeTypeNote, Content: "worth keeping", ParentIDs: []string{board.Board.RootNodeID},
	})
	for _, request := range []*CreateSummaryRequest{
		{Scope: store.SummaryScopeBoard},
		{Scope: store.SummaryScopeNodeSubtree, TargetNodeID: note.ID},
	} {
		rec := ts.invoke(t, ts.CreateSummary, http.MethodPost, "/", request,
			map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	}

	t.Run("lists everything oldest first", func(t *testing.T) {
		rec := ts.invoke(t, ts.ListSummaries, http.MethodGet, "/", nil, map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		listing := decodeResponse[ListSummariesResponse](t, rec)
		require.Len(t, listing.Summaries, 2)
		assert.Equal(t, "Board overview.", listing.Summaries[0].Content)
	})

	t.Run("narrows by scope and target", func(t *testing.T) {
		rec := ts.invoke(t, ts.ListSummaries, http.MethodGet, "/?scope=board", nil,
			map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeResponse[ListSummariesResponse](t, rec).Summaries, 1)

		rec = ts.invoke(t, ts.ListSummaries, http.MethodGet, "/?scope=nodeSubtree&targetNodeId="+note.ID, nil,
			map[string]string{"board": board.Board.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		listing := decodeResponse[ListSummariesResponse](t, rec)
		require.Len(t, listing.Summaries, 1)
		assert.Equal(t, note.ID, listing.Summaries[0].TargetNodeID)
	})

	t.Run("unknown scope is rejected", func(t *testing.T) {
		rec := ts.invoke(t, ts.ListSummaries, http.MethodGet, "/?scope=chapter", nil,
			map[string]string{"board": board.Board.ID})
		assertErrorCode(t, rec, http.StatusBadRequest, apierrors.CodeInvalidArgument)
	})

	t.Run("unknown board is 404", func(t *testing.T) {
		rec := ts.invoke(t, ts.ListSummaries, http.MethodGet, "/", nil, map[string]string{"board": "missing"})
		assertErrorCode(t, rec, http.StatusNotFound, apierrors.CodeNotFound)
	})
}
