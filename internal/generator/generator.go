// Package generator produces grounded answers via an OpenAI-compatible
// chat-completion model.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bull/rag-pipeline/internal/domain"
)

// DefaultMaxPromptTokens is the prompt length ceiling before truncation,
// estimated at 4 characters per token.
const DefaultMaxPromptTokens = 16000

const systemMessage = "You are a helpful assistant that answers questions based on provided context."

// chatAPI is the slice of the OpenAI client the generator needs, extracted
// so tests can substitute a stub.
type chatAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Generator makes a single chat-completion call per prompt. It keeps no
// conversation state between calls; each invocation is independent.
type Generator struct {
	svc             chatAPI
	model           string
	temperature     float64
	maxTokens       int
	maxPromptTokens int
	logger          *slog.Logger
}

// New creates a Generator on an existing OpenAI client.
func New(client *openai.Client, model string, temperature float64, maxTokens int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		svc:             &client.Chat.Completions,
		model:           model,
		temperature:     temperature,
		maxTokens:       maxTokens,
		maxPromptTokens: DefaultMaxPromptTokens,
		logger:          logger,
	}
}

// Generate sends the prompt and returns the completion text. Rate limits
// are retried with exponential backoff; any other provider failure wraps
// domain.ErrGenerationService, exceeded deadlines wrap domain.ErrTimeout.
// No retries beyond rate limiting: the retry policy belongs to the caller.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = g.truncatePrompt(prompt)

	var answer string
	operation := func() error {
		resp, err := g.svc.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemMessage),
				openai.UserMessage(prompt),
			},
			Model:       openai.ChatModel(g.model),
			Temperature: openai.Float(g.temperature),
			MaxTokens:   openai.Int(int64(g.maxTokens)),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(classifyError(err))
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("%w: response contained no choices", domain.ErrGenerationService))
		}
		answer = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if isRateLimitError(err) {
			return "", classifyError(err)
		}
		return "", err
	}
	return answer, nil
}

// truncatePrompt cuts oversized prompts to the token ceiling so a pathological
// context set cannot blow the model's input window. The cut backs up to the
// nearest rune boundary so the truncated prompt stays valid UTF-8.
func (g *Generator) truncatePrompt(prompt string) string {
	maxChars := g.maxPromptTokens * 4
	if len(prompt) <= maxChars {
		return prompt
	}
	g.logger.Warn("Truncating prompt", "chars", len(prompt), "limit", maxChars)
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	return prompt[:cut]
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, domain.ErrGenerationService) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrGenerationService, err)
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
