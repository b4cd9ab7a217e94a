package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

// MockTranslator is a placeholder implementation for translation
type MockTranslator struct {
	policy entities.LanguagePolicy
	logger *zap.Logger
}

// NewMockTranslator creates a new mock translator
func NewMockTranslator(policy entities.LanguagePolicy, logger *zap.Logger) repositories.Translator {
	return &MockTranslator{
		policy: policy,
		logger: logger,
	}
}

// Translate implements repositories.Translator
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.logger.Info("Processing translation", zap.Int("inputLength", len(text)))

	if text == "" {
		return "", fmt.Errorf("nothing to translate")
	}

	return fmt.Sprintf("[%s] %s", m.policy.TargetLanguage, text), nil
}
