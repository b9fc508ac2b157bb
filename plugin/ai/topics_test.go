package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	result       *ChatResult
	err          error
	calls        int
	lastMessages []Message
	lastOpts     *ChatOptions
}

var _ LLMService = (*stubLLM)(nil)

func (s *stubLLM) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResult, error) {
	s.calls++
	s.lastMessages = messages
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestTopicExtractor_Extract(t *testing.T) {
	t.Run("WellFormedPayload", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: `{"topics": [{"title": "Leader election", "description": "How a leader is chosen."}, {"title": "Log replication"}]}`,
			Model:   "gpt-4o-mini",
			Usage:   Usage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130},
		}}
		extractor := NewTopicExtractor(llm)

		result, err := extractor.Extract(context.Background(), "a long discussion about raft", 5)
		require.NoError(t, err)
		require.Len(t, result.Topics, 2)
		assert.Equal(t, "Leader election", result.Topics[0].Title)
		assert.Equal(t, "How a leader is chosen.", result.Topics[0].Description)
		assert.Equal(t, "Log replication", result.Topics[1].Title)
		assert.Equal(t, "gpt-4o-mini", result.Model)
		assert.Equal(t, 130, result.Usage.TotalTokens)

		require.NotNil(t, llm.lastOpts)
		assert.True(t, llm.lastOpts.JSONResponse)
	})

	t.Run("FencedPayload", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: "```json\n{\"topics\": [{\"title\": \"Quorums\"}]}\n```",
		}}
		result, err := NewTopicExtractor(llm).Extract(context.Background(), "quorum talk", 5)
		require.NoError(t, err)
		require.Len(t, result.Topics, 1)
		assert.Equal(t, "Quorums", result.Topics[0].Title)
	})

	t.Run("BareArrayPayload", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: `[{"title": "Snapshots"}, {"title": ""}]`,
		}}
		result, err := NewTopicExtractor(llm).Extract(context.Background(), "snapshot talk", 5)
		require.NoError(t, err)
		// Empty titles are dropped.
		require.Len(t, result.Topics, 1)
		assert.Equal(t, "Snapshots", result.Topics[0].Title)
	})

	t.Run("ChatterAroundPayload", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: "Here you go:\n{\"topics\": [{\"title\": \"Membership changes\"}]}\nHope that helps!",
		}}
		result, err := NewTopicExtractor(llm).Extract(context.Background(), "membership talk", 5)
		require.NoError(t, err)
		require.Len(t, result.Topics, 1)
	})

	t.Run("CapsAtMaxTopics", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: `{"topics": [{"title": "a"}, {"title": "b"}, {"title": "c"}]}`,
		}}
		result, err := NewTopicExtractor(llm).Extract(context.Background(), "busy discussion", 2)
		require.NoError(t, err)
		assert.Len(t, result.Topics, 2)
	})

	t.Run("UnparseablePayload", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{Content: "I could not find any topics, sorry."}}
		_, err := NewTopicExtractor(llm).Extract(context.Background(), "something", 5)
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeResponseParse))
	})

	t.Run("WrongObjectShape", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{Content: `{"items": ["a", "b"]}`}}
		_, err := NewTopicExtractor(llm).Extract(context.Background(), "something", 5)
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeResponseParse))
	})

	t.Run("EmptyContentSkipsProvider", func(t *testing.T) {
		llm := &stubLLM{}
		result, err := NewTopicExtractor(llm).Extract(context.Background(), "   ", 5)
		require.NoError(t, err)
		assert.Empty(t, result.Topics)
		assert.Equal(t, 0, llm.calls)
	})

	t.Run("ProviderErrorPassesThrough", func(t *testing.T) {
		llm := &stubLLM{err: ProviderFailed("boom", nil)}
		_, err := NewTopicExtractor(llm).Extract(context.Background(), "something", 5)
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeProviderFailed))
	})

	t.Run("LongContentTruncated", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{Content: `{"topics": []}`}}
		long := strings.Repeat("x", maxTopicContentChars+500)
		_, err := NewTopicExtractor(llm).Extract(context.Background(), long, 5)
		require.NoError(t, err)
		require.Len(t, llm.lastMessages, 1)
		assert.Less(t, len(llm.lastMessages[0].Content), len(long)+len(topicExtractPrompt))
	})
}
