package store

import (
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// QuestionState describes what the UI may do with a question node, derived
// from the answers hanging below it.
type QuestionState string

const (
	// QuestionStateEditable: no answer yet, the question text can change
	// freely and be sent as new.
	QuestionStateEditable QuestionState = "editable"
	// QuestionStateDuplicateOnly: an answer exists and the discussion has
	// moved on below it, so the question is frozen; branch by duplicating.
	QuestionStateDuplicateOnly QuestionState = "duplicateOnly"
	// QuestionStateCanResend: answers exist but nothing was asked after
	// them, so the question may be resent to replace the stale answers.
	QuestionStateCanResend QuestionState = "canResend"
)

// QuestionEditState derives the lifecycle state of a node. Nodes that are
// not user questions are always editable, their content has no downstream
// conversation to invalidate.
func (g *BoardGraph) QuestionEditState(id string) (QuestionState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return "", errors.Wrapf(ErrNodeNotFound, "node %s", id)
	}
	if !node.IsQuestion() {
		return QuestionStateEditable, nil
	}

	answered := false
	for _, cid := range node.ChildrenIDs {
		child, ok := g.nodes[cid]
		if !ok || !child.IsAnswer() {
			continue
		}
		answered = true
		if g.hasQuestionBelowLocked(cid) {
			return QuestionStateDuplicateOnly, nil
		}
	}
	if !answered {
		return QuestionStateEditable, nil
	}
	return QuestionStateCanResend, nil
}

// hasQuestionBelowLocked reports whether any strict descendant of id is a
// user question. Callers hold the lock.
func (g *BoardGraph) hasQuestionBelowLocked(id string) bool {
	for _, did := range g.closureLocked(id) {
		if did == id {
			continue
		}
		if node, ok := g.nodes[did]; ok && node.IsQuestion() {
			return true
		}
	}
	return false
}

// DuplicateQuestion creates a sibling of a frozen question: same parents in
// the same order, same text and annotations, but no children, no answer link
// and fresh identity. The copy starts editable.
func (g *BoardGraph) DuplicateQuestion(id string) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, ok := g.nodes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %s", id)
	}
	if !src.IsQuestion() {
		return nil, errors.Wrapf(ErrInvalidOperation, "node %s is not a question", id)
	}

	now := time.Now().Unix()
	dup := &Node{
		ID:        shortuuid.New(),
		Type:      NodeTypeMessage,
		Role:      NodeRoleUser,
		Title:     src.Title,
		Content:   src.Content,
		ParentIDs: append([]string(nil), src.ParentIDs...),
		Metadata:  src.Metadata.Clone(),
		CreatedTs: now,
		UpdatedTs: now,
	}
	for _, pid := range dup.ParentIDs {
		parent := g.nodes[pid]
		parent.ChildrenIDs = append(parent.ChildrenIDs, dup.ID)
		parent.UpdatedTs = now
	}
	g.nodes[dup.ID] = dup
	g.order = append(g.order, dup.ID)
	g.board.UpdatedTs = now
	return dup.Clone(), nil
}
