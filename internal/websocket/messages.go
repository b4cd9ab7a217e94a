package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// StreamEvent is the event name of a Twilio Media Streams message
type StreamEvent string

// Supported stream events
const (
	StreamEventConnected StreamEvent = "connected"
	StreamEventStart     StreamEvent = "start"
	StreamEventMedia     StreamEvent = "media"
	StreamEventStop      StreamEvent = "stop"
	StreamEventMark      StreamEvent = "mark"
)

// BaseMessage defines the common structure for all stream messages
type BaseMessage struct {
	Event          StreamEvent `json:"event"`
	SequenceNumber string      `json:"sequenceNumber,omitempty"`
	StreamSID      string      `json:"streamSid,omitempty"`
}

// ConnectedMessage is the first message sent after the socket opens
type ConnectedMessage struct {
	BaseMessage
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

// MediaFormat describes the audio carried by media messages
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// StartMessage carries the stream metadata, including the call handle
type StartMessage struct {
	BaseMessage
	Start struct {
		AccountSID       string            `json:"accountSid"`
		StreamSID        string            `json:"streamSid"`
		CallSID          string            `json:"callSid"`
		Tracks           []string          `json:"tracks"`
		MediaFormat      MediaFormat       `json:"mediaFormat"`
		CustomParameters map[string]string `json:"customParameters,omitempty"`
	} `json:"start"`
}

// MediaMessage carries one base64 encoded audio fragment
type MediaMessage struct {
	BaseMessage
	Media struct {
		Track     string `json:"track"`
		Chunk     string `json:"chunk"`
		Timestamp string `json:"timestamp"`
		Payload   string `json:"payload"`
	} `json:"media"`
}

// StopMessage marks the end of the stream
type StopMessage struct {
	BaseMessage
	Stop struct {
		AccountSID string `json:"accountSid"`
		CallSID    string `json:"callSid"`
	} `json:"stop"`
}

// MarkMessage acknowledges playback of a named mark
type MarkMessage struct {
	BaseMessage
	Mark struct {
		Name string `json:"name"`
	} `json:"mark"`
}

// Audio decodes the media payload
func (m *MediaMessage) Audio() ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(m.Media.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid media payload: %w", err)
	}
	return audio, nil
}

// ParseStreamMessage decodes a text frame into one of the typed stream messages
func ParseStreamMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get the event
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	var msg interface{}
	switch base.Event {
	case StreamEventConnected:
		msg = &ConnectedMessage{}
	case StreamEventStart:
		msg = &StartMessage{}
	case StreamEventMedia:
		msg = &MediaMessage{}
	case StreamEventStop:
		msg = &StopMessage{}
	case StreamEventMark:
		msg = &MarkMessage{}
	case "":
		return nil, fmt.Errorf("message missing event field")
	default:
		return nil, fmt.Errorf("unsupported stream event: %s", base.Event)
	}

	if err := json.Unmarshal(messageBytes, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Event, err)
	}

	if media, ok := msg.(*MediaMessage); ok && media.Media.Payload == "" {
		return nil, fmt.Errorf("media message missing payload")
	}

	return msg, nil
}
