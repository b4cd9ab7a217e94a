package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
)

// ConnectionDirectory is the part of the connection registry the router reads
type ConnectionDirectory interface {
	Get(id string) (*entities.Connection, error)
	FindOther(excludeID string) (string, bool)
	FindOtherInPair(excludeID, pairID string) (string, bool)
}

// Router delivers translated text to the other participant of a call
type Router struct {
	directory ConnectionDirectory
	calls     repositories.CallControl
	logger    *zap.Logger
}

// NewRouter creates a new response router
func NewRouter(directory ConnectionDirectory, calls repositories.CallControl, logger *zap.Logger) *Router {
	return &Router{
		directory: directory,
		calls:     calls,
		logger:    logger,
	}
}

// DeliverSpokenResponse speaks text into the call leg registered as targetID
func (r *Router) DeliverSpokenResponse(ctx context.Context, targetID, text string) error {
	target, err := r.directory.Get(targetID)
	if err != nil {
		return fmt.Errorf("%w: %w", repositories.ErrNoTargetParticipant, err)
	}

	callTarget := repositories.CallTarget{
		ConnectionID: target.ID,
		CallSID:      target.CallSID(),
		ResponseURL:  target.ResponseURL,
	}
	if err := r.calls.Say(ctx, callTarget, text); err != nil {
		return fmt.Errorf("%w: %w", repositories.ErrDeliveryFailed, err)
	}

	r.logger.Info("Delivered spoken response",
		zap.String("targetID", target.ID),
		zap.String("callSID", callTarget.CallSID))
	return nil
}

// RouteFrom delivers text to whoever is on the other side of speakerID.
// It returns the id of the participant that received it.
func (r *Router) RouteFrom(ctx context.Context, speakerID, text string) (string, error) {
	targetID, ok := r.directory.FindOther(speakerID)
	return r.deliverTo(ctx, speakerID, targetID, ok, text)
}

// RouteFromConnection is RouteFrom for a speaker that may already have left the registry
func (r *Router) RouteFromConnection(ctx context.Context, speaker *entities.Connection, text string) (string, error) {
	targetID, ok := r.directory.FindOtherInPair(speaker.ID, speaker.PairID)
	return r.deliverTo(ctx, speaker.ID, targetID, ok, text)
}

func (r *Router) deliverTo(ctx context.Context, speakerID, targetID string, found bool, text string) (string, error) {
	if !found || targetID == speakerID {
		return "", fmt.Errorf("%w: nobody else is connected with %s", repositories.ErrNoTargetParticipant, speakerID)
	}
	if err := r.DeliverSpokenResponse(ctx, targetID, text); err != nil {
		return "", err
	}
	return targetID, nil
}
