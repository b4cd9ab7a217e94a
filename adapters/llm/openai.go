package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

const (
	defaultOpenAIModel   = "gpt-4"
	defaultOpenAITimeout = 30 * time.Second
)

// OpenAIConfig holds configuration for the OpenAITranslator
type OpenAIConfig struct {
	APIKey      string        // Required
	BaseURL     string        // Optional: OpenAI-compatible endpoint, including the /v1 suffix
	Model       string        // Optional: defaults to gpt-4
	Temperature float32       // Optional: provider default when zero
	Timeout     time.Duration // Optional: per-request HTTP timeout
}

// OpenAITranslator translates transcripts with an OpenAI chat model
type OpenAITranslator struct {
	model  *openai.ChatModel
	policy entities.LanguagePolicy
	name   string
	logger *zap.Logger
}

var _ repositories.Translator = (*OpenAITranslator)(nil)

// ValidateOpenAIConfig validates the OpenAIConfig
func ValidateOpenAIConfig(config OpenAIConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	return nil
}

// NewOpenAITranslator creates a chat-completion backed translator
func NewOpenAITranslator(ctx context.Context, config OpenAIConfig, policy entities.LanguagePolicy, logger *zap.Logger) (*OpenAITranslator, error) {
	if err := ValidateOpenAIConfig(config); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid language policy: %w", err)
	}

	name := config.Model
	if name == "" {
		name = defaultOpenAIModel
		logger.Info("Using default translation model", zap.String("model", name))
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultOpenAITimeout
	}

	modelConfig := &openai.ChatModelConfig{
		Model:   name,
		APIKey:  config.APIKey,
		BaseURL: strings.TrimRight(config.BaseURL, "/"),
		Timeout: timeout,
	}
	if config.Temperature != 0 {
		temperature := config.Temperature
		modelConfig.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the chat model '%s': %w", name, err)
	}

	return &OpenAITranslator{
		model:  chatModel,
		policy: policy,
		name:   name,
		logger: logger,
	}, nil
}

// Translate implements repositories.Translator
func (t *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	r, err := t.model.Generate(ctx, []*schema.Message{
		{
			Role:    schema.System,
			Content: entities.TranslatorSystemPrompt,
		},
		{
			Role:    schema.User,
			Content: t.policy.Instruction(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("unable to generate translation: %w", err)
	}

	translated := strings.TrimSpace(r.Content)
	t.logger.Debug("Translation generated",
		zap.String("model", t.name),
		zap.Int("inputLength", len(text)),
		zap.Int("outputLength", len(translated)))

	return translated, nil
}
