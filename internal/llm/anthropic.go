package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client for Anthropic Claude models
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultAnthropicConfig()
	}

	return &AnthropicClient{
		client: anthropic.NewClient(anthropicoption.WithAPIKey(apiKey)),
		config: config,
	}, nil
}

// GenerateJSON sends the prompt as a single user message and returns the cleaned JSON text
func (c *AnthropicClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	maxTokens := int64(DefaultMaxOutputTokens)
	if c.config.MaxOutputTokens > 0 {
		maxTokens = int64(c.config.MaxOutputTokens)
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(c.config.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyAnthropicError(err)
	}
	if string(msg.StopReason) == "refusal" {
		return "", &RejectedError{Provider: ProviderAnthropic, Reason: "model refused the request"}
	}

	text, err := anthropicText(msg)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK client holds no resources that need releasing
func (c *AnthropicClient) Close() error {
	return nil
}

// anthropicText concatenates the text blocks of a message
func anthropicText(msg *anthropic.Message) (string, error) {
	if msg == nil {
		return "", ErrNoContent
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(parts, ""), nil
}

// classifyAnthropicError separates requests the API refused from transport and server failures
func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && rejectedStatus(apiErr.StatusCode) {
		return &RejectedError{
			Provider: ProviderAnthropic,
			Reason:   fmt.Sprintf("status %d", apiErr.StatusCode),
			Cause:    err,
		}
	}
	return fmt.Errorf("failed to generate content: %w", err)
}

// rejectedStatus reports whether an HTTP status means the request itself was refused.
// Auth failures, throttling and server errors are availability problems instead.
func rejectedStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
