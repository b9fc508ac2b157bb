package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteGenerator_Generate(t *testing.T) {
	t.Run("TrimsResult", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{
			Content: "\n# Key insight\n\n- point one\n",
			Model:   "gpt-4o-mini",
			Usage:   Usage{TotalTokens: 42},
		}}
		gen := NewNoteGenerator(llm)

		note, err := gen.Generate(context.Background(), "a discussion to distill")
		require.NoError(t, err)
		assert.Equal(t, "# Key insight\n\n- point one", note.Content)
		assert.Equal(t, "gpt-4o-mini", note.Model)
		assert.Equal(t, 42, note.Usage.TotalTokens)

		require.Len(t, llm.lastMessages, 1)
		assert.Contains(t, llm.lastMessages[0].Content, "a discussion to distill")
	})

	t.Run("EmptyContentSkipsProvider", func(t *testing.T) {
		llm := &stubLLM{}
		note, err := NewNoteGenerator(llm).Generate(context.Background(), "  \n ")
		require.NoError(t, err)
		assert.Empty(t, note.Content)
		assert.Equal(t, 0, llm.calls)
	})

	t.Run("LongContentTruncated", func(t *testing.T) {
		llm := &stubLLM{result: &ChatResult{Content: "note"}}
		long := strings.Repeat("y", maxNoteContentChars+1000)
		_, err := NewNoteGenerator(llm).Generate(context.Background(), long)
		require.NoError(t, err)
		assert.Less(t, len(llm.lastMessages[0].Content), len(long))
	})

	t.Run("ProviderErrorPassesThrough", func(t *testing.T) {
		llm := &stubLLM{err: ProviderFailed("boom", nil)}
		_, err := NewNoteGenerator(llm).Generate(context.Background(), "content")
		require.Error(t, err)
		assert.True(t, IsCode(err, ErrCodeProviderFailed))
	})
}
