package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// TranscribeAudio converts one audio segment to text
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
}

// AudioConfig describes the raw audio carried by a call leg
type AudioConfig struct {
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Encoding   string `json:"encoding" yaml:"encoding"`
	Language   string `json:"language" yaml:"language"`
}

// Supported raw encodings. The relay never converts between them, it only
// labels the container it hands to the transcription service.
const (
	EncodingMulaw    = "MULAW"
	EncodingLinear16 = "LINEAR16"
)
