package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/satriahrh/juru/server/domain/entities"
)

var envKeys = []string{
	"PORT", "LOG_LEVEL", "DISPATCH_THRESHOLD_BYTES", "MAX_CONCURRENT_DISPATCHES", "DISPATCH_TIMEOUT",
	"SHUTDOWN_TIMEOUT", "AUDIO_ENCODING", "AUDIO_SAMPLE_RATE", "STT_LANGUAGE", "OPENAI_API_KEY",
	"OPENAI_BASE_URL", "STT_PROVIDER", "WHISPER_MODEL", "GOOGLE_APPLICATION_CREDENTIALS",
	"TRANSLATOR_PROVIDER", "TRANSLATION_MODEL", "GEMINI_API_KEY", "TRANSLATION_MODE",
	"TRANSLATION_TARGET_LANGUAGE", "TRANSLATION_SOURCE_LANGUAGE", "TELEPHONY_PROVIDER",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VOICE", "TWILIO_LANGUAGE", "TELEPHONY_WEBHOOK_URL",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	config, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults to be valid, got %v", err)
	}

	if config.Relay.ThresholdBytes != 15000 {
		t.Errorf("Expected threshold 15000, got %d", config.Relay.ThresholdBytes)
	}
	if config.Audio.SampleRate != 8000 || config.Audio.Encoding != "MULAW" {
		t.Errorf("Unexpected audio defaults %+v", config.Audio)
	}
	if config.STT.Provider != ProviderMock || config.Translator.Provider != ProviderMock || config.Telephony.Provider != ProviderLog {
		t.Errorf("Expected offline providers by default, got %s/%s/%s",
			config.STT.Provider, config.Translator.Provider, config.Telephony.Provider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DISPATCH_THRESHOLD_BYTES", "32000")
	t.Setenv("DISPATCH_TIMEOUT", "15s")
	t.Setenv("STT_PROVIDER", "whisper")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRANSLATION_MODE", "FIXED")
	t.Setenv("TRANSLATION_TARGET_LANGUAGE", "German")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", config.Server.Port)
	}
	if config.Relay.ThresholdBytes != 32000 {
		t.Errorf("Expected threshold 32000, got %d", config.Relay.ThresholdBytes)
	}
	if config.Relay.DispatchTimeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %s", config.Relay.DispatchTimeout)
	}
	if config.Translator.Policy.Mode != entities.TranslationModeFixed || config.Translator.Policy.TargetLanguage != "German" {
		t.Errorf("Unexpected policy %+v", config.Translator.Policy)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7070"
relay:
  threshold_bytes: 8000
  dispatch_timeout: 20s
telephony:
  provider: webhook
  webhook_url: https://example.test/twiml
translator:
  policy:
    mode: bidirectional
    target_language: French
    source_language: English
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("DISPATCH_THRESHOLD_BYTES", "9000")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if config.Server.Port != "7070" {
		t.Errorf("Expected port from file, got %s", config.Server.Port)
	}
	if config.Relay.ThresholdBytes != 9000 {
		t.Errorf("Expected env to override file, got %d", config.Relay.ThresholdBytes)
	}
	if config.Relay.DispatchTimeout != 20*time.Second {
		t.Errorf("Expected 20s timeout from file, got %s", config.Relay.DispatchTimeout)
	}
	if config.Relay.MaxConcurrentDispatches != 16 {
		t.Errorf("Expected untouched default, got %d", config.Relay.MaxConcurrentDispatches)
	}
	if config.Telephony.Provider != ProviderWebhook {
		t.Errorf("Expected webhook provider, got %s", config.Telephony.Provider)
	}
	if config.Translator.Policy.TargetLanguage != "French" {
		t.Errorf("Expected French, got %s", config.Translator.Policy.TargetLanguage)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad threshold", map[string]string{"DISPATCH_THRESHOLD_BYTES": "lots"}, "DISPATCH_THRESHOLD_BYTES"},
		{"zero threshold", map[string]string{"DISPATCH_THRESHOLD_BYTES": "0"}, "threshold_bytes"},
		{"bad duration", map[string]string{"DISPATCH_TIMEOUT": "soon"}, "DISPATCH_TIMEOUT"},
		{"whisper without key", map[string]string{"STT_PROVIDER": "whisper"}, "OPENAI_API_KEY"},
		{"gemini without key", map[string]string{"TRANSLATOR_PROVIDER": "gemini"}, "GEMINI_API_KEY"},
		{"twilio without credentials", map[string]string{"TELEPHONY_PROVIDER": "twilio"}, "TWILIO_ACCOUNT_SID"},
		{"unknown stt", map[string]string{"STT_PROVIDER": "carrier-pigeon"}, "unknown provider"},
		{"bad encoding", map[string]string{"AUDIO_ENCODING": "MP3"}, "unsupported encoding"},
		{"bad port", map[string]string{"PORT": "http"}, "invalid port"},
		{"same languages", map[string]string{"TRANSLATION_TARGET_LANGUAGE": "English"}, "two different languages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil {
				t.Fatalf("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
