package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
	"github.com/satriahrh/juru/server/internal/metrics"
	"github.com/satriahrh/juru/server/internal/registry"
)

type fakeSpeechToText struct {
	mu    sync.Mutex
	calls int
	fn    func(audio []byte) (string, error)
}

func (f *fakeSpeechToText) TranscribeAudio(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(audio)
}

func (f *fakeSpeechToText) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	fn    func(text string) (string, error)
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(text)
}

func (f *fakeTranslator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type spoken struct {
	Target repositories.CallTarget
	Text   string
}

type recordingCallControl struct {
	mu    sync.Mutex
	said  []spoken
	err   error
	delay time.Duration
}

func (r *recordingCallControl) Say(ctx context.Context, target repositories.CallTarget, text string) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.said = append(r.said, spoken{Target: target, Text: text})
	return nil
}

func (r *recordingCallControl) Said() []spoken {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]spoken, len(r.said))
	copy(out, r.said)
	return out
}

type pipelineFixture struct {
	registry *registry.Registry
	stt      *fakeSpeechToText
	tr       *fakeTranslator
	calls    *recordingCallControl
	metrics  *metrics.Metrics
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T, threshold int) *pipelineFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	f := &pipelineFixture{
		registry: registry.New(),
		stt:      &fakeSpeechToText{fn: func([]byte) (string, error) { return "hola", nil }},
		tr:       &fakeTranslator{fn: func(text string) (string, error) { return "hello", nil }},
		calls:    &recordingCallControl{},
		metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	}

	audio := repositories.AudioConfig{SampleRate: 8000, Encoding: repositories.EncodingMulaw}
	dispatcher := NewDispatcher(f.stt, f.tr, audio, logger)
	router := NewRouter(f.registry, f.calls, logger)
	f.pipeline = NewPipeline(registry.NewAccumulator(threshold), dispatcher, router, f.metrics,
		PipelineConfig{MaxConcurrent: 4, Timeout: 5 * time.Second}, logger)
	return f
}

func (f *pipelineFixture) connect(t *testing.T, id, pair string) *entities.Connection {
	t.Helper()
	conn := entities.NewConnection(id, "caller", pair)
	if err := f.registry.Register(conn); err != nil {
		t.Fatalf("Register %s failed: %v", id, err)
	}
	conn.Open()
	return conn
}

// waitIdle blocks until conn has no segment in flight
func waitIdle(t *testing.T, conn *entities.Connection) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for conn.Dispatching() {
		if time.Now().After(deadline) {
			t.Fatalf("Connection %s still dispatching after 5s", conn.ID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// waitForSaid blocks until n responses have been spoken
func waitForSaid(t *testing.T, calls *recordingCallControl, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(calls.Said()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d spoken responses, got %d", n, len(calls.Said()))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
