package ai

import (
	"context"
	"fmt"
	"strings"
)

const noteGeneratePrompt = `Distill the following discussion fragment into one concise note.

## Content
%s

## Requirements
1. Start with a single-line heading naming the core insight.
2. Follow with at most five short bullet points.
3. Keep the source terminology and do not add outside knowledge.
4. Write in the language of the content.
5. Return only the note text in markdown.`

// maxNoteContentChars bounds the fragment a note is distilled from.
const maxNoteContentChars = 6000

// NoteResult is one generated note.
type NoteResult struct {
	Content string
	Model   string
	Usage   Usage
}

// NoteGenerator distills node content into note nodes.
type NoteGenerator struct {
	llm LLMService
}

// NewNoteGenerator creates a note generator on top of a chat service.
func NewNoteGenerator(llm LLMService) *NoteGenerator {
	return &NoteGenerator{llm: llm}
}

// Generate produces a markdown note for the given content.
func (g *NoteGenerator) Generate(ctx context.Context, content string) (*NoteResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return &NoteResult{}, nil
	}

	prompt := fmt.Sprintf(noteGeneratePrompt, truncateRunes(content, maxNoteContentChars))
	result, err := g.llm.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}
	return &NoteResult{
		Content: strings.TrimSpace(result.Content),
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}
