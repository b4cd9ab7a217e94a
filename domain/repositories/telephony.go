package repositories

import "context"

// CallTarget identifies the live call leg that should hear a response
type CallTarget struct {
	ConnectionID string
	CallSID      string
	ResponseURL  string
}

// CallControl abstracts the telephony control plane
type CallControl interface {
	// Say instructs the target call to speak text
	Say(ctx context.Context, target CallTarget, text string) error
}
