package stt

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/satriahrh/juru/server/domain/repositories"
)

var _ repositories.SpeechToText = &GoogleSpeechToText{}

func TestGetAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{repositories.EncodingMulaw, speechpb.RecognitionConfig_MULAW},
		{repositories.EncodingLinear16, speechpb.RecognitionConfig_LINEAR16},
		{"WAV", speechpb.RecognitionConfig_LINEAR16},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
	}

	for _, tt := range tests {
		got, err := getAudioEncoding(tt.input)
		if err != nil {
			t.Errorf("Expected no error for %s, got %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Expected %v for %s, got %v", tt.expected, tt.input, got)
		}
	}

	if _, err := getAudioEncoding("MP3"); err == nil {
		t.Error("Expected error for unsupported encoding")
	}
}
