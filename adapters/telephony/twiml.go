package telephony

import (
	"fmt"
	"strings"

	"github.com/twilio/twilio-go/twiml"
)

const defaultVoice = "Polly.Miguel"

// SpeechOptions controls how text is voiced on the call
type SpeechOptions struct {
	Voice    string `json:"voice" yaml:"voice"`
	Language string `json:"language" yaml:"language"`
}

func (o SpeechOptions) withDefaults() SpeechOptions {
	if o.Voice == "" {
		o.Voice = defaultVoice
	}
	return o
}

// BuildSayTwiML renders a TwiML document that speaks text once
func BuildSayTwiML(text string, opts SpeechOptions) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	opts = opts.withDefaults()

	doc, err := twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{
			Message:  text,
			Voice:    opts.Voice,
			Language: opts.Language,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build TwiML: %w", err)
	}
	return doc, nil
}
