package repositories

import "context"

// Translator abstracts any text translation provider
type Translator interface {
	// Translate takes a transcript and returns it rendered according to the
	// configured language policy.
	Translate(ctx context.Context, text string) (string, error)
}
