package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"campus-rag/internal/config"
)

// GenerateContent sends messages to the configured OpenAI-compatible chat
// endpoint and returns the raw response.
func GenerateContent(ctx context.Context, llmCfg *config.LLMConfig, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	log.Debug().Str("model", llmCfg.Model).Str("base_url", llmCfg.BaseURL).Msg("Generating content")
	llm, err := openai.New(
		openai.WithBaseURL(llmCfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmCfg.Key, "Bearer ")),
		openai.WithModel(llmCfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return llm.GenerateContent(ctx, messages)
}
