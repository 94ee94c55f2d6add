package insights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = "gpt-4o-mini"

// OpenAI generates insights through an OpenAI-compatible
// chat-completions endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI builds a provider. baseURL and model may be empty for the
// platform defaults; a nil logger discards.
func NewOpenAI(apiKey, baseURL, model string, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (o *OpenAI) Generate(ctx context.Context, sum Summary) (*Insight, error) {
	system := systemPrompt()
	user := userPrompt(sum)

	o.logger.Debug("requesting insight",
		"model", o.model,
		"project", sum.ProjectID,
		"equipment", sum.EquipmentName,
		"bookings", sum.Total,
	)

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("insight completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	o.logger.Debug("insight reply", "len", len(content))
	return parseInsight(content), nil
}

// classify maps API errors onto the package's typed failures so the UI
// can distinguish "slow down" from "out of credits".
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
	}
	return fmt.Errorf("generating insight: %w", err)
}
