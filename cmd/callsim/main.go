// Command callsim plays an audio file into the relay as a single call leg.
// Run two of them with the same --pair to simulate a translated call.
package main

import (
	"context"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	server := pflag.String("server", "ws://localhost:8080/ws", "relay websocket endpoint")
	file := pflag.String("file", "sample_audio.wav", "audio file to stream (WAV or raw)")
	connectionID := pflag.String("id", "", "connection id, generated by the relay when empty")
	role := pflag.String("role", "caller", "role label of this leg")
	pair := pflag.String("pair", "", "pair id shared by both legs of a call")
	callSID := pflag.String("call-sid", "", "call handle used for spoken responses")
	responseURL := pflag.String("response-url", "", "webhook that should receive the spoken response")
	chunkSize := pflag.Int("chunk-size", 160, "bytes per websocket frame")
	interval := pflag.Duration("interval", 20*time.Millisecond, "delay between frames")
	twilio := pflag.Bool("twilio", false, "wrap frames in Twilio Media Streams events")
	linger := pflag.Duration("linger", 5*time.Second, "time to keep the leg open after the last frame")
	pflag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	audio, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read audio file", zap.String("file", *file), zap.Error(err))
	}
	audio = stripWAVHeader(audio)

	endpoint, err := buildEndpoint(*server, legParams{
		ConnectionID: *connectionID,
		Role:         *role,
		Pair:         *pair,
		CallSID:      *callSID,
		ResponseURL:  *responseURL,
	})
	if err != nil {
		logger.Fatal("Invalid server URL", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting", zap.String("url", endpoint))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		logger.Fatal("Dial failed", zap.Error(err))
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Info("Relay closed the leg", zap.Error(err))
				return
			}
		}
	}()

	streamer := &streamer{
		conn:      conn,
		chunkSize: *chunkSize,
		interval:  *interval,
		twilio:    *twilio,
		callSID:   *callSID,
		logger:    logger,
	}

	start := time.Now()
	sent, err := streamer.Stream(ctx, audio)
	if err != nil {
		logger.Error("Streaming stopped", zap.Int("framesSent", sent), zap.Error(err))
	} else {
		logger.Info("Finished streaming",
			zap.Int("framesSent", sent),
			zap.Int("bytes", len(audio)),
			zap.Duration("elapsed", time.Since(start)))
	}

	select {
	case <-done:
		return
	case <-ctx.Done():
	case <-time.After(*linger):
	}

	if err := streamer.Hangup(); err != nil {
		logger.Warn("Failed to hang up cleanly", zap.Error(err))
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

type legParams struct {
	ConnectionID string
	Role         string
	Pair         string
	CallSID      string
	ResponseURL  string
}

func buildEndpoint(server string, params legParams) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}

	query := u.Query()
	set := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	set("connection_id", params.ConnectionID)
	set("role", params.Role)
	set("pair", params.Pair)
	set("call_sid", params.CallSID)
	set("response_url", params.ResponseURL)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
