package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// OpenAI adapts the OpenAI chat completion API to the pipeline's
// text-generation boundary. One instance per model: the idea generator
// and the critic committee run against separately configured instances.
// The pipeline only ever sees the returned text, never vendor metadata.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

func NewOpenAI(apiKey, model string, timeout time.Duration, log *logger.Logger) *OpenAI {
	return &OpenAI{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		log:     log.WithField("component", "llm").WithField("model", model),
	}
}

// Generate implements contracts.TextGenerator. Each call carries its
// own timeout so a hung backend degrades the stage, not the run.
func (o *OpenAI) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	o.log.WithFields(map[string]interface{}{
		"duration":      time.Since(start),
		"prompt_tokens": resp.Usage.PromptTokens,
		"total_tokens":  resp.Usage.TotalTokens,
	}).Debug("completion finished")

	return resp.Choices[0].Message.Content, nil
}

var _ contracts.TextGenerator = (*OpenAI)(nil)
