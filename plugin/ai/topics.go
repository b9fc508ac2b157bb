package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const topicExtractPrompt = `Extract the key topics from the following discussion fragment.

## Content
%s

## Requirements
1. Return at most %d topics, ordered from most to least central.
2. A topic title is a short noun phrase of at most six words.
3. Optionally add one sentence of description, an importance from 1 to 5 and up to three tags per topic.
4. Only use topics actually present in the content.
5. Only return a JSON object of the form {"topics": [{"title": "...", "description": "...", "importance": 3, "tags": ["..."]}]}.
6. Do not return anything except the JSON object.`

// Topic is one extracted topic. Importance and tags are optional model
// judgments and may be absent.
type Topic struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Importance  int      `json:"importance,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TopicResult carries the extracted topics plus provider accounting.
type TopicResult struct {
	Topics []Topic
	Model  string
	Usage  Usage
}

// maxTopicContentChars bounds the fragment sent for extraction; anything
// longer is cut mid-discussion rather than blowing the prompt budget.
const maxTopicContentChars = 4000

// TopicExtractor derives topic nodes from node content.
type TopicExtractor struct {
	llm LLMService
}

// NewTopicExtractor creates a topic extractor on top of a chat service.
func NewTopicExtractor(llm LLMService) *TopicExtractor {
	return &TopicExtractor{llm: llm}
}

// Extract asks the model for up to maxTopics topics. An unparseable payload
// is a RESPONSE_PARSE_FAILED error; callers that extract opportunistically
// are expected to drop it and move on.
func (e *TopicExtractor) Extract(ctx context.Context, content string, maxTopics int) (*TopicResult, error) {
	if maxTopics <= 0 {
		maxTopics = 5
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return &TopicResult{Topics: []Topic{}}, nil
	}

	prompt := fmt.Sprintf(topicExtractPrompt, truncateRunes(content, maxTopicContentChars), maxTopics)
	result, err := e.llm.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, &ChatOptions{
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	topics, err := parseTopicsPayload(result.Content)
	if err != nil {
		slog.Debug("topic payload did not parse", "payload", truncateForLog(result.Content, 200))
		return nil, ResponseParseFailed("topic payload did not parse", err).WithContext("model", result.Model)
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return &TopicResult{Topics: topics, Model: result.Model, Usage: result.Usage}, nil
}

// parseTopicsPayload accepts the requested {"topics": [...]} object and,
// because models drift, a bare array of the same items.
func parseTopicsPayload(payload string) ([]Topic, error) {
	payload = cleanJSONPayload(payload)

	var wrapped struct {
		Topics []Topic `json:"topics"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapped); err == nil && wrapped.Topics != nil {
		return filterTopics(wrapped.Topics), nil
	}

	var bare []Topic
	if err := json.Unmarshal([]byte(payload), &bare); err != nil {
		return nil, fmt.Errorf("neither a topics object nor an array: %w", err)
	}
	return filterTopics(bare), nil
}

func filterTopics(in []Topic) []Topic {
	out := make([]Topic, 0, len(in))
	for _, t := range in {
		t.Title = strings.TrimSpace(t.Title)
		t.Description = strings.TrimSpace(t.Description)
		if t.Title == "" {
			continue
		}
		t.Title = truncateRunes(t.Title, 80)
		if t.Importance < 0 || t.Importance > 5 {
			t.Importance = 0
		}
		out = append(out, t)
	}
	return out
}

// cleanJSONPayload strips markdown fences and leading chatter around the
// outermost JSON value.
func cleanJSONPayload(payload string) string {
	payload = strings.TrimSpace(payload)
	payload = strings.TrimPrefix(payload, "```json")
	payload = strings.TrimPrefix(payload, "```")
	payload = strings.TrimSuffix(payload, "```")
	payload = strings.TrimSpace(payload)

	objStart := strings.Index(payload, "{")
	arrStart := strings.Index(payload, "[")
	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if end := strings.LastIndex(payload, "}"); end > objStart {
			return payload[objStart : end+1]
		}
	}
	if arrStart >= 0 {
		if end := strings.LastIndex(payload, "]"); end > arrStart {
			return payload[arrStart : end+1]
		}
	}
	return payload
}

// truncateRunes cuts s to at most n runes, appending an ellipsis when it
// actually cut something.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// truncateForLog bounds raw payloads quoted in log records.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
