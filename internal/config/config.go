package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

// Provider names
const (
	ProviderMock    = "mock"
	ProviderWhisper = "whisper"
	ProviderGoogle  = "google"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderTwilio  = "twilio"
	ProviderWebhook = "webhook"
	ProviderLog     = "log"
)

// Config represents the complete service configuration
type Config struct {
	Server     ServerConfig             `yaml:"server"`
	Relay      RelayConfig              `yaml:"relay"`
	Audio      repositories.AudioConfig `yaml:"audio"`
	OpenAI     OpenAIConfig             `yaml:"openai"`
	STT        STTConfig                `yaml:"stt"`
	Translator TranslatorConfig         `yaml:"translator"`
	Telephony  TelephonyConfig          `yaml:"telephony"`
}

// ServerConfig contains HTTP server and logging configuration
type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// RelayConfig contains the accumulate and dispatch tunables
type RelayConfig struct {
	ThresholdBytes          int           `yaml:"threshold_bytes"`
	MaxConcurrentDispatches int64         `yaml:"max_concurrent_dispatches"`
	DispatchTimeout         time.Duration `yaml:"dispatch_timeout"`
	ShutdownTimeout         time.Duration `yaml:"shutdown_timeout"`
}

// OpenAIConfig is shared by the whisper and openai providers
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// STTConfig selects and configures the transcription provider
type STTConfig struct {
	Provider              string `yaml:"provider"`
	WhisperModel          string `yaml:"whisper_model"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
}

// TranslatorConfig selects and configures the translation provider
type TranslatorConfig struct {
	Provider     string                  `yaml:"provider"`
	Model        string                  `yaml:"model"`
	GeminiAPIKey string                  `yaml:"gemini_api_key"`
	Policy       entities.LanguagePolicy `yaml:"policy"`
}

// TelephonyConfig selects and configures how translations are spoken
type TelephonyConfig struct {
	Provider         string `yaml:"provider"`
	TwilioAccountSID string `yaml:"twilio_account_sid"`
	TwilioAuthToken  string `yaml:"twilio_auth_token"`
	Voice            string `yaml:"voice"`
	Language         string `yaml:"language"`
	WebhookURL       string `yaml:"webhook_url"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
		Relay: RelayConfig{
			ThresholdBytes:          15000,
			MaxConcurrentDispatches: 16,
			DispatchTimeout:         60 * time.Second,
			ShutdownTimeout:         30 * time.Second,
		},
		Audio: repositories.AudioConfig{
			SampleRate: 8000,
			Encoding:   repositories.EncodingMulaw,
		},
		STT: STTConfig{
			Provider:     ProviderMock,
			WhisperModel: "whisper-1",
		},
		Translator: TranslatorConfig{
			Provider: ProviderMock,
			Policy:   entities.DefaultLanguagePolicy(),
		},
		Telephony: TelephonyConfig{
			Provider: ProviderLog,
			Voice:    "Polly.Miguel",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")

	if err := setInt(&c.Relay.ThresholdBytes, "DISPATCH_THRESHOLD_BYTES"); err != nil {
		return err
	}
	if err := setInt64(&c.Relay.MaxConcurrentDispatches, "MAX_CONCURRENT_DISPATCHES"); err != nil {
		return err
	}
	if err := setDuration(&c.Relay.DispatchTimeout, "DISPATCH_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Relay.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Audio.Encoding, "AUDIO_ENCODING")
	if err := setInt(&c.Audio.SampleRate, "AUDIO_SAMPLE_RATE"); err != nil {
		return err
	}
	setString(&c.Audio.Language, "STT_LANGUAGE")

	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")

	setString(&c.STT.Provider, "STT_PROVIDER")
	setString(&c.STT.WhisperModel, "WHISPER_MODEL")
	setString(&c.STT.GoogleCredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	setString(&c.Translator.Provider, "TRANSLATOR_PROVIDER")
	setString(&c.Translator.Model, "TRANSLATION_MODEL")
	setString(&c.Translator.GeminiAPIKey, "GEMINI_API_KEY")
	if mode := os.Getenv("TRANSLATION_MODE"); mode != "" {
		c.Translator.Policy.Mode = entities.TranslationMode(strings.ToLower(mode))
	}
	setString(&c.Translator.Policy.TargetLanguage, "TRANSLATION_TARGET_LANGUAGE")
	setString(&c.Translator.Policy.SourceLanguage, "TRANSLATION_SOURCE_LANGUAGE")

	setString(&c.Telephony.Provider, "TELEPHONY_PROVIDER")
	setString(&c.Telephony.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Telephony.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Telephony.Voice, "TWILIO_VOICE")
	setString(&c.Telephony.Language, "TWILIO_LANGUAGE")
	setString(&c.Telephony.WebhookURL, "TELEPHONY_WEBHOOK_URL")

	return nil
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server config: port cannot be empty")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server config: invalid port %q", c.Server.Port)
	}

	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio config: sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	switch c.Audio.Encoding {
	case repositories.EncodingMulaw, repositories.EncodingLinear16:
	default:
		return fmt.Errorf("audio config: unsupported encoding %q", c.Audio.Encoding)
	}

	if err := c.validateSTT(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}
	if err := c.validateTranslator(); err != nil {
		return fmt.Errorf("translator config: %w", err)
	}
	if err := c.validateTelephony(); err != nil {
		return fmt.Errorf("telephony config: %w", err)
	}
	return nil
}

// Validate validates relay configuration
func (r *RelayConfig) Validate() error {
	if r.ThresholdBytes < 1 {
		return fmt.Errorf("threshold_bytes must be at least 1, got %d", r.ThresholdBytes)
	}
	if r.MaxConcurrentDispatches < 1 {
		return fmt.Errorf("max_concurrent_dispatches must be at least 1, got %d", r.MaxConcurrentDispatches)
	}
	if r.DispatchTimeout <= 0 {
		return fmt.Errorf("dispatch_timeout must be positive, got %s", r.DispatchTimeout)
	}
	if r.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", r.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateSTT() error {
	switch c.STT.Provider {
	case ProviderMock, ProviderGoogle:
		return nil
	case ProviderWhisper:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("whisper provider requires OPENAI_API_KEY")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider %q", c.STT.Provider)
	}
}

func (c *Config) validateTranslator() error {
	if err := c.Translator.Policy.Validate(); err != nil {
		return err
	}
	switch c.Translator.Provider {
	case ProviderMock:
		return nil
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return nil
	case ProviderGemini:
		if c.Translator.GeminiAPIKey == "" {
			return fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider %q", c.Translator.Provider)
	}
}

func (c *Config) validateTelephony() error {
	switch c.Telephony.Provider {
	case ProviderLog, ProviderWebhook:
		return nil
	case ProviderTwilio:
		if c.Telephony.TwilioAccountSID == "" || c.Telephony.TwilioAuthToken == "" {
			return fmt.Errorf("twilio provider requires TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider %q", c.Telephony.Provider)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
