package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/repositories"
)

const defaultWhisperModel = openai.Whisper1

// WhisperConfig holds configuration for the WhisperSpeechToText adapter
type WhisperConfig struct {
	APIKey   string // Required
	BaseURL  string // Optional: OpenAI-compatible endpoint, including the /v1 suffix
	Model    string // Optional: defaults to whisper-1
	Language string // Optional: ISO-639-1 hint, empty lets the service detect it
}

// WhisperSpeechToText transcribes audio segments with the OpenAI audio API
type WhisperSpeechToText struct {
	client   *openai.Client
	model    string
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*WhisperSpeechToText)(nil)

// ValidateWhisperConfig validates the WhisperConfig
func ValidateWhisperConfig(config WhisperConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}
	return nil
}

// NewWhisperSpeechToText creates a new Whisper transcription adapter
func NewWhisperSpeechToText(config WhisperConfig, logger *zap.Logger) (*WhisperSpeechToText, error) {
	if err := ValidateWhisperConfig(config); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	model := config.Model
	if model == "" {
		model = defaultWhisperModel
		logger.Info("Using default whisper model", zap.String("model", model))
	}

	return &WhisperSpeechToText{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		language: config.Language,
		logger:   logger,
	}, nil
}

// TranscribeAudio wraps the segment in a WAV container in memory and uploads it
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	wav, err := EncodeWAV(audioData, config)
	if err != nil {
		return "", err
	}

	language := config.Language
	if language == "" {
		language = w.language
	}

	// The file name only tells the service which container it is reading.
	fileName := uuid.NewString() + ".wav"

	w.logger.Debug("Sending audio to whisper",
		zap.String("model", w.model),
		zap.String("file", fileName),
		zap.Int("bytes", len(audioData)))

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: fileName,
		Reader:   bytes.NewReader(wav),
		Language: language,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("whisper request failed: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
