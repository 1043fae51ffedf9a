// Package answer turns a retrieval result into an end-user response. When
// retrieval came back below threshold it returns a fixed refusal without
// calling the model: a miss must never fall through to an ungrounded answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"campus-rag/internal/config"
	"campus-rag/internal/llmservice"
	"campus-rag/internal/models"
)

type Client struct {
	cfg *config.LLMConfig
}

func New(cfg *config.LLMConfig) *Client {
	return &Client{cfg: cfg}
}

// Answer generates a grounded response to the question from the retrieved
// matches.
func (c *Client) Answer(ctx context.Context, question string, result *models.RetrievalResult) (string, error) {
	if result == nil || result.BelowThreshold || len(result.Matches) == 0 {
		return models.FallbackAnswer, nil
	}

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, BuildContext(result), question)
	if result.IsAggregation {
		prompt += "\n\nThe question asks for a list; answer with a bulleted list of every distinct item found in the context."
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	res, err := llmservice.GenerateContent(ctx, c.cfg, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("chat model returned no choices")
	}
	return res.Choices[0].Content, nil
}

// BuildContext concatenates match texts, each prefixed with its provenance,
// into the prompt context block.
func BuildContext(result *models.RetrievalResult) string {
	var b strings.Builder
	for _, m := range result.Matches {
		source := m.Metadata.SourceID
		if m.Metadata.URL != "" {
			source = m.Metadata.URL
		}
		fmt.Fprintf(&b, "[%s]\n%s\n\n", source, m.Metadata.Text)
	}
	return strings.TrimSpace(b.String())
}
