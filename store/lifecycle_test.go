package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardGraph_QuestionEditState(t *testing.T) {
	t.Run("UnansweredQuestionIsEditable", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateEditable, state)
	})

	t.Run("NonQuestionsAlwaysEditable", func(t *testing.T) {
		g := newTestGraph(t)
		root := g.Root()
		note := mustCreate(t, g, NodeTypeNote, "", "note", root.ID)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", note.ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)

		for _, id := range []string{root.ID, note.ID} {
			state, err := g.QuestionEditState(id)
			require.NoError(t, err)
			assert.Equal(t, QuestionStateEditable, state)
		}
	})

	t.Run("AnsweredWithNothingBelowCanResend", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateCanResend, state)
	})

	t.Run("NotesBelowAnswerStillResendable", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)
		a := mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)
		mustCreate(t, g, NodeTypeNote, "", "margin note", a.ID)
		mustCreate(t, g, NodeTypeTopic, "", "extracted topic", a.ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateCanResend, state)
	})

	t.Run("FollowUpQuestionFreezes", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)
		a := mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "follow-up", a.ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateDuplicateOnly, state)
	})

	t.Run("DeepFollowUpAlsoFreezes", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)
		a := mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)
		note := mustCreate(t, g, NodeTypeNote, "", "note", a.ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "buried follow-up", note.ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateDuplicateOnly, state)
	})

	t.Run("OneFrozenAnswerFreezesAll", func(t *testing.T) {
		g := newTestGraph(t)
		q := mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "q", g.Root().ID)
		a1 := mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "first answer", q.ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "second answer", q.ID)
		mustCreate(t, g, NodeTypeMessage, NodeRoleUser, "follow-up", a1.ID)

		state, err := g.QuestionEditState(q.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateDuplicateOnly, state)
	})

	t.Run("UnknownNode", func(t *testing.T) {
		g := newTestGraph(t)
		_, err := g.QuestionEditState("missing")
		require.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestBoardGraph_DuplicateQuestion(t *testing.T) {
	t.Run("CopiesEverythingButIdentity", func(t *testing.T) {
		g := newTestGraph(t)
		root := g.Root()
		side := mustCreate(t, g, NodeTypeNote, "", "side", root.ID)
		q, err := g.CreateNode(&CreateNode{
			Type:      NodeTypeMessage,
			Role:      NodeRoleUser,
			Title:     "Original",
			Content:   "What changed?",
			ParentIDs: []string{root.ID, side.ID},
			Metadata:  &NodeMetadata{Importance: 4, Tags: []string{"history"}},
		})
		require.NoError(t, err)
		a := mustCreate(t, g, NodeTypeMessage, NodeRoleAssistant, "a", q.ID)
		pair := a.ID
		_, err = g.UpdateNode(&UpdateNode{ID: q.ID, QAPairID: &pair})
		require.NoError(t, err)

		dup, err := g.DuplicateQuestion(q.ID)
		require.NoError(t, err)

		assert.NotEqual(t, q.ID, dup.ID)
		assert.Equal(t, q.Content, dup.Content)
		assert.Equal(t, q.Title, dup.Title)
		assert.Equal(t, []string{root.ID, side.ID}, dup.ParentIDs)
		assert.Equal(t, 4, dup.EffectiveImportance())
		assert.Empty(t, dup.ChildrenIDs)
		assert.Empty(t, dup.QAPairID)
		assert.False(t, dup.IsLoading)

		state, err := g.QuestionEditState(dup.ID)
		require.NoError(t, err)
		assert.Equal(t, QuestionStateEditable, state)

		parent, _ := g.GetNode(root.ID)
		assert.Contains(t, parent.ChildrenIDs, dup.ID)
	})

	t.Run("OnlyQuestionsDuplicate", func(t *testing.T) {
		g := newTestGraph(t)
		note := mustCreate(t, g, NodeTypeNote, "", "note", g.Root().ID)
		_, err := g.DuplicateQuestion(note.ID)
		require.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("UnknownNode", func(t *testing.T) {
		g := newTestGraph(t)
		_, err := g.DuplicateQuestion("missing")
		require.ErrorIs(t, err, ErrNodeNotFound)
	})
}
