package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "plain text passes through",
			source: "just a sentence",
			want:   "just a sentence",
		},
		{
			name:   "inline markup stripped",
			source: "some **bold** and _italic_ and `code`",
			want:   "some bold and italic and code",
		},
		{
			name:   "headings and paragraphs become lines",
			source: "# Title\n\nFirst paragraph.\n\nSecond paragraph.",
			want:   "Title\n\nFirst paragraph.\n\nSecond paragraph.",
		},
		{
			name:   "list items separated",
			source: "- one\n- two",
			want:   "one\n\ntwo",
		},
		{
			name:   "fenced code kept verbatim",
			source: "```go\nfmt.Println(\"hi\")\n```",
			want:   "fmt.Println(\"hi\")",
		},
		{
			name:   "links keep their text",
			source: "see [the paper](https://example.com/raft)",
			want:   "see the paper",
		},
		{
			name:   "empty input",
			source: "   \n  ",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.source))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "first heading wins",
			source: "intro line\n\n## Consensus\n\nmore text",
			want:   "Consensus",
		},
		{
			name:   "heading markup stripped",
			source: "# The **Raft** paper",
			want:   "The Raft paper",
		},
		{
			name:   "falls back to first line",
			source: "What is leader election?\nAnd why does it matter?",
			want:   "What is leader election?",
		},
		{
			name:   "empty input",
			source: "",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.source))
		})
	}
}
