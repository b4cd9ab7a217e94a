package entities

import (
	"fmt"
	"time"
)

// TranslationResult is the output of one dispatch. It is never persisted.
type TranslationResult struct {
	SpeakerID   string        `json:"speaker_id"`
	Transcript  string        `json:"transcript"`
	Translation string        `json:"translation"`
	AudioBytes  int           `json:"audio_bytes"`
	Duration    time.Duration `json:"duration"`
}

// TranslationMode selects how the target language is chosen
type TranslationMode string

const (
	// TranslationModeFixed always translates into TargetLanguage.
	TranslationModeFixed TranslationMode = "fixed"
	// TranslationModeBidirectional translates into TargetLanguage, or back
	// into SourceLanguage when the input is already in TargetLanguage.
	TranslationModeBidirectional TranslationMode = "bidirectional"
)

// LanguagePolicy describes the source to target language rule
type LanguagePolicy struct {
	Mode           TranslationMode `json:"mode" yaml:"mode"`
	TargetLanguage string          `json:"target_language" yaml:"target_language"`
	SourceLanguage string          `json:"source_language" yaml:"source_language"`
}

// DefaultLanguagePolicy serves Spanish/English call pairs without knowing
// in advance who speaks which language.
func DefaultLanguagePolicy() LanguagePolicy {
	return LanguagePolicy{
		Mode:           TranslationModeBidirectional,
		TargetLanguage: "Spanish",
		SourceLanguage: "English",
	}
}

// Validate validates the language policy
func (p LanguagePolicy) Validate() error {
	switch p.Mode {
	case TranslationModeFixed:
		if p.TargetLanguage == "" {
			return fmt.Errorf("target language is required")
		}
	case TranslationModeBidirectional:
		if p.TargetLanguage == "" || p.SourceLanguage == "" {
			return fmt.Errorf("bidirectional mode requires both target and source language")
		}
		if p.TargetLanguage == p.SourceLanguage {
			return fmt.Errorf("bidirectional mode requires two different languages, got %s twice", p.TargetLanguage)
		}
	default:
		return fmt.Errorf("unknown translation mode %q", p.Mode)
	}
	return nil
}

// Instruction renders the user-facing translation request for text
func (p LanguagePolicy) Instruction(text string) string {
	if p.Mode == TranslationModeBidirectional {
		return fmt.Sprintf("Translate this to %s (or back to %s if it's %s): %s",
			p.TargetLanguage, p.SourceLanguage, p.TargetLanguage, text)
	}
	return fmt.Sprintf("Translate this to %s: %s", p.TargetLanguage, text)
}

// TranslatorSystemPrompt is sent as the system message to chat-based translators
const TranslatorSystemPrompt = "You are a live phone call translator. Translate naturally and briefly. " +
	"Reply with the translated text only."
