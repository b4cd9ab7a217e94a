package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/repositories"
)

// TwilioConfig holds configuration for the TwilioCallControl adapter
type TwilioConfig struct {
	AccountSID string // Required
	AuthToken  string // Required
	Speech     SpeechOptions
}

// callUpdater is the slice of the Twilio REST API this adapter needs
type callUpdater interface {
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

// TwilioCallControl speaks into a live call by replacing its TwiML
type TwilioCallControl struct {
	api    callUpdater
	speech SpeechOptions
	logger *zap.Logger
}

var _ repositories.CallControl = (*TwilioCallControl)(nil)

// ValidateTwilioConfig validates the TwilioConfig
func ValidateTwilioConfig(config TwilioConfig) error {
	if config.AccountSID == "" {
		return fmt.Errorf("Twilio account SID is required")
	}
	if config.AuthToken == "" {
		return fmt.Errorf("Twilio auth token is required")
	}
	return nil
}

// NewTwilioCallControl creates a Twilio REST backed CallControl
func NewTwilioCallControl(config TwilioConfig, logger *zap.Logger) (*TwilioCallControl, error) {
	if err := ValidateTwilioConfig(config); err != nil {
		return nil, err
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})

	if config.Speech.Voice == "" {
		logger.Info("Using default voice", zap.String("voice", defaultVoice))
	}

	return &TwilioCallControl{
		api:    client.Api,
		speech: config.Speech.withDefaults(),
		logger: logger,
	}, nil
}

// Say implements repositories.CallControl
func (t *TwilioCallControl) Say(ctx context.Context, target repositories.CallTarget, text string) error {
	if target.CallSID == "" {
		return fmt.Errorf("connection %s has no call SID", target.ConnectionID)
	}

	doc, err := BuildSayTwiML(text, t.speech)
	if err != nil {
		return err
	}

	// The REST client has no context support; bail out early if already cancelled.
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.UpdateCallParams{}
	params.SetTwiml(doc)

	if _, err := t.api.UpdateCall(target.CallSID, params); err != nil {
		return fmt.Errorf("failed to update call %s: %w", target.CallSID, err)
	}

	t.logger.Info("Spoke into call",
		zap.String("connectionID", target.ConnectionID),
		zap.String("callSID", target.CallSID))

	return nil
}
