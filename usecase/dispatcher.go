package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

// Dispatcher turns one audio segment into translated text
type Dispatcher struct {
	speechToText repositories.SpeechToText
	translator   repositories.Translator
	audioConfig  repositories.AudioConfig
	logger       *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	stt repositories.SpeechToText,
	translator repositories.Translator,
	audioConfig repositories.AudioConfig,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		speechToText: stt,
		translator:   translator,
		audioConfig:  audioConfig,
		logger:       logger,
	}
}

// Translate transcribes audio and translates the transcript. Each step is tried once.
func (d *Dispatcher) Translate(ctx context.Context, audio []byte, speakerID string) (entities.TranslationResult, error) {
	start := time.Now()
	result := entities.TranslationResult{SpeakerID: speakerID, AudioBytes: len(audio)}

	if len(audio) == 0 {
		return result, repositories.ErrEmptyAudio
	}

	// Step 1: Speech to Text
	transcript, err := d.speechToText.TranscribeAudio(ctx, audio, d.audioConfig)
	if err != nil {
		return result, fmt.Errorf("%w: %w", repositories.ErrTranscriptionFailed, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return result, fmt.Errorf("%w: empty transcript", repositories.ErrTranscriptionFailed)
	}
	result.Transcript = transcript

	d.logger.Info("Transcription completed",
		zap.String("connectionID", speakerID),
		zap.String("text", transcript))

	// Step 2: Translate
	translation, err := d.translator.Translate(ctx, transcript)
	if err != nil {
		return result, fmt.Errorf("%w: %w", repositories.ErrTranslationFailed, err)
	}
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return result, fmt.Errorf("%w: empty translation", repositories.ErrTranslationFailed)
	}
	result.Translation = translation
	result.Duration = time.Since(start)

	d.logger.Info("Translation completed",
		zap.String("connectionID", speakerID),
		zap.String("text", translation),
		zap.Duration("duration", result.Duration))

	return result, nil
}
