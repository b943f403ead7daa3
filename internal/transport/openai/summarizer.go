package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	"github.com/kailas-cloud/imagedex/internal/metrics"
)

// summaryPrompt instructs the model to produce the two-fence reply shape
// the parser understands.
const summaryPrompt = "Describe this image. Reply with a fenced ```json block " +
	"containing an object with a \"summary\" field (one concise sentence) and a " +
	"\"keywords\" field (an array of search keywords for the image). If you cannot " +
	"produce the array, put the keywords in a second fenced block on a single line " +
	"starting with KEYWORDS: followed by a comma-separated list."

// Summarizer derives a description and keywords from image content using a
// vision-capable OpenAI-compatible chat completion API.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the summarization provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summarization provider.
func NewSummarizer(cfg *Config) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Summarize implements domain.Summarizer. encoded is the base64 asset body;
// mediaType its sniffed MIME type. A reply that parses to nothing usable
// returns an empty Summary with a nil error so the caller can retry.
func (s *Summarizer) Summarize(ctx context.Context, encoded, mediaType string) (domain.Summary, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:%s;base64,%s", mediaType, encoded),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: summaryPrompt,
					},
				},
			},
		},
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.SummarizeRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return domain.Summary{}, parseAPIError(err)
	}

	metrics.SummarizeRequestsTotal.WithLabelValues(s.model, "success").Inc()
	metrics.SummarizeRequestDuration.WithLabelValues(s.model).Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		metrics.SummarizeEmptyRepliesTotal.WithLabelValues(s.model).Inc()
		return domain.Summary{}, nil
	}

	summary := ParseReply(resp.Choices[0].Message.Content)
	if summary.IsEmpty() {
		metrics.SummarizeEmptyRepliesTotal.WithLabelValues(s.model).Inc()
		s.logger.Debug("summarization reply yielded no usable summary",
			zap.String("model", s.model))
	}
	return summary, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Summarizer) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrSummarizerUnavailable for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrSummarizerUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("summarization API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("summarization API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("summarization API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("summarization request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
