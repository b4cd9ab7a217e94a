package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/satriahrh/juru/server/domain/entities"
	"github.com/satriahrh/juru/server/domain/repositories"
	"github.com/satriahrh/juru/server/internal/metrics"
	"github.com/satriahrh/juru/server/internal/registry"
)

const (
	defaultMaxConcurrentDispatches = 16
	defaultDispatchTimeout         = 60 * time.Second
)

// PipelineConfig bounds segment processing
type PipelineConfig struct {
	MaxConcurrent int64
	Timeout       time.Duration
}

// Pipeline runs each claimed segment through translation and delivery in its
// own goroutine. Failures are logged and counted, never returned to the gateway.
type Pipeline struct {
	accumulator *registry.Accumulator
	dispatcher  *Dispatcher
	router      *Router
	metrics     *metrics.Metrics
	logger      *zap.Logger

	sem     *semaphore.Weighted
	timeout time.Duration

	// Segments outlive their connection; only shutdown cancels them.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.RWMutex
	closing bool
}

// NewPipeline creates a new relay pipeline
func NewPipeline(
	accumulator *registry.Accumulator,
	dispatcher *Dispatcher,
	router *Router,
	m *metrics.Metrics,
	config PipelineConfig,
	logger *zap.Logger,
) *Pipeline {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentDispatches
		logger.Info("Using default max concurrent dispatches", zap.Int64("maxConcurrent", maxConcurrent))
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
		logger.Info("Using default dispatch timeout", zap.Duration("timeout", timeout))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		accumulator: accumulator,
		dispatcher:  dispatcher,
		router:      router,
		metrics:     m,
		logger:      logger,
		sem:         semaphore.NewWeighted(maxConcurrent),
		timeout:     timeout,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Ingest feeds one audio fragment from conn. When the fragment pushes the
// buffer over the threshold the drained segment is processed in the background.
// It reports whether a segment was dispatched.
func (p *Pipeline) Ingest(conn *entities.Connection, fragment []byte) bool {
	p.metrics.RecordBytesReceived(len(fragment))

	segment, ok := p.accumulator.Offer(conn, fragment)
	if !ok {
		return false
	}
	return p.submit(conn, segment)
}

// submit starts processing a segment already claimed through the accumulator
func (p *Pipeline) submit(conn *entities.Connection, segment []byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closing {
		p.accumulator.Complete(conn)
		p.logger.Warn("Pipeline closing, segment dropped",
			zap.String("connectionID", conn.ID),
			zap.Int("bytes", len(segment)))
		return false
	}

	p.metrics.RecordDispatchStarted(len(segment))
	p.logger.Debug("Dispatching segment",
		zap.String("connectionID", conn.ID),
		zap.Int("bytes", len(segment)))

	p.wg.Add(1)
	go p.process(conn, segment)
	return true
}

func (p *Pipeline) process(conn *entities.Connection, segment []byte) {
	defer p.wg.Done()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from panic in dispatch",
				zap.String("connectionID", conn.ID),
				zap.Any("panic", r))
		}
		p.metrics.RecordDispatchFinished(time.Since(start).Seconds())
		p.accumulator.Complete(conn)
		p.resumeDeferred(conn)
	}()

	if err := p.sem.Acquire(p.baseCtx, 1); err != nil {
		p.logger.Warn("Segment dropped at shutdown", zap.String("connectionID", conn.ID))
		return
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(p.baseCtx, p.timeout)
	defer cancel()

	result, err := p.dispatcher.Translate(ctx, segment, conn.ID)
	if err != nil {
		p.fail(conn, err)
		return
	}

	targetID, err := p.router.RouteFromConnection(ctx, conn, result.Translation)
	if err != nil {
		p.fail(conn, err)
		return
	}

	p.metrics.RecordDelivered()
	p.logger.Info("Segment relayed",
		zap.String("connectionID", conn.ID),
		zap.String("targetID", targetID),
		zap.Int("bytes", len(segment)),
		zap.Duration("duration", time.Since(start)))
}

// resumeDeferred dispatches audio that crossed the threshold while the
// previous segment of conn was in flight.
func (p *Pipeline) resumeDeferred(conn *entities.Connection) {
	if !conn.IsOpen() || p.baseCtx.Err() != nil {
		return
	}
	if segment, ok := p.accumulator.Offer(conn, nil); ok {
		p.submit(conn, segment)
	}
}

func (p *Pipeline) fail(conn *entities.Connection, err error) {
	stage := metrics.StageDelivery
	switch {
	case errors.Is(err, repositories.ErrEmptyAudio), errors.Is(err, repositories.ErrTranscriptionFailed):
		stage = metrics.StageTranscription
	case errors.Is(err, repositories.ErrTranslationFailed):
		stage = metrics.StageTranslation
	case errors.Is(err, repositories.ErrNoTargetParticipant):
		stage = metrics.StageRouting
	}
	p.metrics.RecordFailure(stage)

	p.logger.Warn("Segment abandoned",
		zap.String("connectionID", conn.ID),
		zap.String("stage", stage),
		zap.Error(err))
}

// Wait stops accepting segments and blocks until every in-flight segment has
// finished. If ctx ends first, remaining segments are cancelled and ctx's
// error is returned.
func (p *Pipeline) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
