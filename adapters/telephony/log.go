package telephony

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/repositories"
)

// LogCallControl only logs what would be spoken. Used for local runs.
type LogCallControl struct {
	logger *zap.Logger
}

var _ repositories.CallControl = (*LogCallControl)(nil)

// NewLogCallControl creates a new logging CallControl
func NewLogCallControl(logger *zap.Logger) *LogCallControl {
	return &LogCallControl{logger: logger}
}

// Say implements repositories.CallControl
func (l *LogCallControl) Say(ctx context.Context, target repositories.CallTarget, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	l.logger.Info("Say",
		zap.String("connectionID", target.ConnectionID),
		zap.String("callSID", target.CallSID),
		zap.String("text", text))
	return nil
}
