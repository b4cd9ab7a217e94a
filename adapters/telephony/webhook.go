package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/repositories"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookConfig holds configuration for the WebhookCallControl adapter
type WebhookConfig struct {
	// DefaultURL receives TwiML for connections that did not supply a response URL.
	DefaultURL string
	Timeout    time.Duration
	Speech     SpeechOptions
}

// WebhookCallControl posts TwiML documents to the call's response URL
type WebhookCallControl struct {
	defaultURL string
	speech     SpeechOptions
	client     *http.Client
	logger     *zap.Logger
}

var _ repositories.CallControl = (*WebhookCallControl)(nil)

// NewWebhookCallControl creates a webhook backed CallControl
func NewWebhookCallControl(config WebhookConfig, logger *zap.Logger) (*WebhookCallControl, error) {
	if config.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultWebhookTimeout
		logger.Info("Using default webhook timeout", zap.Duration("timeout", timeout))
	}

	if config.DefaultURL == "" {
		logger.Info("No default webhook URL, connections must supply response_url")
	}

	return &WebhookCallControl{
		defaultURL: config.DefaultURL,
		speech:     config.Speech.withDefaults(),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Say implements repositories.CallControl
func (w *WebhookCallControl) Say(ctx context.Context, target repositories.CallTarget, text string) error {
	url := target.ResponseURL
	if url == "" {
		url = w.defaultURL
	}
	if url == "" {
		return fmt.Errorf("connection %s has no response URL", target.ConnectionID)
	}

	doc, err := BuildSayTwiML(text, w.speech)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(doc))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml")
	if target.CallSID != "" {
		httpReq.Header.Set("X-Call-Sid", target.CallSID)
	}

	w.logger.Debug("Posting TwiML", zap.String("url", url), zap.String("connectionID", target.ConnectionID))

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned error %d: %s", resp.StatusCode, string(errorBody))
	}

	return nil
}
