package repositories

import "errors"

// Registry errors. These stay local to the caller.
var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrNotFound            = errors.New("connection not found")
)

// Pipeline errors. These are logged at the dispatch boundary and swallowed.
var (
	ErrEmptyAudio          = errors.New("empty audio segment")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrTranslationFailed   = errors.New("translation failed")
	ErrNoTargetParticipant = errors.New("no target participant")
	ErrDeliveryFailed      = errors.New("delivery failed")
)
