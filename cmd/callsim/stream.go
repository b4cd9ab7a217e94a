package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	relayws "github.com/satriahrh/juru/server/internal/websocket"
)

const wavHeaderSize = 44

// frameWriter is the part of *websocket.Conn the streamer needs
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

type streamer struct {
	conn      frameWriter
	chunkSize int
	interval  time.Duration
	twilio    bool
	callSID   string
	logger    *zap.Logger

	streamSID string
	sequence  int
}

// Stream sends audio in chunkSize frames, paced by interval.
// It returns the number of frames written.
func (s *streamer) Stream(ctx context.Context, audio []byte) (int, error) {
	if s.twilio {
		s.streamSID = "MZ" + uuid.NewString()
		if err := s.writeEvent(s.startEvent()); err != nil {
			return 0, err
		}
	}

	frames := chunk(audio, s.chunkSize)
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		var err error
		if s.twilio {
			err = s.writeEvent(s.mediaEvent(frame, i))
		} else {
			err = s.conn.WriteMessage(websocket.BinaryMessage, frame)
		}
		if err != nil {
			return i, err
		}

		s.logger.Debug("Sent frame", zap.Int("frame", i+1), zap.Int("total", len(frames)), zap.Int("size", len(frame)))

		if s.interval > 0 {
			select {
			case <-ctx.Done():
				return i + 1, ctx.Err()
			case <-time.After(s.interval):
			}
		}
	}
	return len(frames), nil
}

// Hangup ends the leg with a stop event or a normal close frame
func (s *streamer) Hangup() error {
	if s.twilio {
		return s.writeEvent(s.stopEvent())
	}
	return s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *streamer) writeEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *streamer) base(event relayws.StreamEvent) relayws.BaseMessage {
	s.sequence++
	return relayws.BaseMessage{
		Event:          event,
		SequenceNumber: strconv.Itoa(s.sequence),
		StreamSID:      s.streamSID,
	}
}

func (s *streamer) startEvent() *relayws.StartMessage {
	msg := &relayws.StartMessage{BaseMessage: s.base(relayws.StreamEventStart)}
	msg.Start.StreamSID = s.streamSID
	msg.Start.CallSID = s.callSID
	msg.Start.Tracks = []string{"inbound"}
	msg.Start.MediaFormat = relayws.MediaFormat{
		Encoding:   "audio/x-mulaw",
		SampleRate: 8000,
		Channels:   1,
	}
	return msg
}

func (s *streamer) mediaEvent(frame []byte, index int) *relayws.MediaMessage {
	msg := &relayws.MediaMessage{BaseMessage: s.base(relayws.StreamEventMedia)}
	msg.Media.Track = "inbound"
	msg.Media.Chunk = strconv.Itoa(index + 1)
	msg.Media.Timestamp = strconv.FormatInt(int64(index)*s.interval.Milliseconds(), 10)
	msg.Media.Payload = base64.StdEncoding.EncodeToString(frame)
	return msg
}

func (s *streamer) stopEvent() *relayws.StopMessage {
	msg := &relayws.StopMessage{BaseMessage: s.base(relayws.StreamEventStop)}
	msg.Stop.CallSID = s.callSID
	return msg
}

// chunk splits data into frames of at most size bytes
func chunk(data []byte, size int) [][]byte {
	if size <= 0 {
		size = len(data)
	}
	var frames [][]byte
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		frames = append(frames, data[start:end])
	}
	return frames
}

// stripWAVHeader drops a canonical RIFF/WAVE header so only samples are sent
func stripWAVHeader(data []byte) []byte {
	if len(data) >= wavHeaderSize && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return data[wavHeaderSize:]
	}
	return data
}
