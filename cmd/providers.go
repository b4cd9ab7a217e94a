package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/adapters/llm"
	"github.com/satriahrh/juru/server/adapters/stt"
	"github.com/satriahrh/juru/server/adapters/telephony"
	"github.com/satriahrh/juru/server/domain/repositories"
	"github.com/satriahrh/juru/server/internal/config"
)

func newSpeechToText(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.STT.Provider {
	case config.ProviderWhisper:
		return stt.NewWhisperSpeechToText(stt.WhisperConfig{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.STT.WhisperModel,
			Language: cfg.Audio.Language,
		}, logger)
	case config.ProviderGoogle:
		return stt.NewGoogleSpeechToText(ctx, stt.GoogleConfig{
			CredentialsFile: cfg.STT.GoogleCredentialsFile,
			LanguageCode:    cfg.Audio.Language,
		}, logger)
	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("unknown speech-to-text provider %q", cfg.STT.Provider)
	}
}

func newTranslator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Translator, error) {
	switch cfg.Translator.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAITranslator(ctx, llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.Translator.Model,
		}, cfg.Translator.Policy, logger)
	case config.ProviderGemini:
		return llm.NewGeminiTranslator(ctx, llm.GeminiConfig{
			APIKey: cfg.Translator.GeminiAPIKey,
			Model:  cfg.Translator.Model,
		}, cfg.Translator.Policy, logger)
	case config.ProviderMock:
		return llm.NewMockTranslator(cfg.Translator.Policy, logger), nil
	default:
		return nil, fmt.Errorf("unknown translator provider %q", cfg.Translator.Provider)
	}
}

func newCallControl(cfg *config.Config, logger *zap.Logger) (repositories.CallControl, error) {
	speech := telephony.SpeechOptions{
		Voice:    cfg.Telephony.Voice,
		Language: cfg.Telephony.Language,
	}

	switch cfg.Telephony.Provider {
	case config.ProviderTwilio:
		return telephony.NewTwilioCallControl(telephony.TwilioConfig{
			AccountSID: cfg.Telephony.TwilioAccountSID,
			AuthToken:  cfg.Telephony.TwilioAuthToken,
			Speech:     speech,
		}, logger)
	case config.ProviderWebhook:
		return telephony.NewWebhookCallControl(telephony.WebhookConfig{
			DefaultURL: cfg.Telephony.WebhookURL,
			Speech:     speech,
		}, logger)
	case config.ProviderLog:
		return telephony.NewLogCallControl(logger), nil
	default:
		return nil, fmt.Errorf("unknown telephony provider %q", cfg.Telephony.Provider)
	}
}
