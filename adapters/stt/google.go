package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/satriahrh/juru/server/domain/repositories"
)

// GoogleConfig holds configuration for the GoogleSpeechToText adapter
type GoogleConfig struct {
	CredentialsFile      string   // Optional: falls back to application default credentials
	LanguageCode         string   // Optional: defaults to en-US
	AlternativeLanguages []string // Optional: extra BCP-47 codes the caller may speak
}

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	client       *speech.Client
	languageCode string
	alternatives []string
	logger       *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud Speech client
func NewGoogleSpeechToText(ctx context.Context, config GoogleConfig, logger *zap.Logger) (*GoogleSpeechToText, error) {
	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	languageCode := config.LanguageCode
	if languageCode == "" {
		languageCode = "en-US"
		logger.Info("Using default speech language", zap.String("languageCode", languageCode))
	}

	return &GoogleSpeechToText{
		client:       client,
		languageCode: languageCode,
		alternatives: config.AlternativeLanguages,
		logger:       logger,
	}, nil
}

// TranscribeAudio converts audio data to text using Google Cloud Speech-to-Text (non-streaming)
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	languageCode := config.Language
	if languageCode == "" {
		languageCode = g.languageCode
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                 encoding,
			SampleRateHertz:          int32(config.SampleRate),
			LanguageCode:             languageCode,
			AlternativeLanguageCodes: g.alternatives,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			// Take the best alternative
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}

	g.logger.Debug("Google speech recognized",
		zap.Int("results", len(resp.Results)),
		zap.Int("bytes", len(audioData)))

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close releases the underlying gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", repositories.EncodingLinear16:
		return speechpb.RecognitionConfig_LINEAR16, nil
	case repositories.EncodingMulaw:
		return speechpb.RecognitionConfig_MULAW, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
