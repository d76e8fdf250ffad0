// Package lifecycle owns the process-wide speech model: it is loaded once
// before traffic is accepted, shared read-only by every request, and
// released at shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"swaraj/internal/logging"
	"swaraj/internal/transcription"
	"swaraj/internal/worker"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrNotLoaded is returned while no model is held.
	ErrNotLoaded = errors.New("model not loaded")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("model already loaded")
)

// Loader builds the backend. It is called exactly once.
type Loader func(ctx context.Context) (transcription.Backend, error)

// Manager holds the loaded backend and the worker pool inference runs on.
type Manager struct {
	load    Loader
	workers int
	logger  *zap.Logger

	started atomic.Bool
	backend atomic.Pointer[transcription.Backend]
	pool    *worker.Pool
	mu      sync.Mutex
}

// New creates a manager that will run inference on workers goroutines.
func New(load Loader, workers int, logger *zap.Logger) *Manager {
	return &Manager{
		load:    load,
		workers: workers,
		logger:  logging.OrNop(logger),
	}
}

// Start loads the model. Any load error is returned as-is and the manager
// stays unloaded; there is no retry.
func (m *Manager) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	m.logger.Info("loading model...")
	started := time.Now()

	backend, err := m.load(ctx)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	m.mu.Lock()
	m.pool = worker.NewPool(m.workers, m.workers*4, m.logger)
	m.pool.Start()
	m.mu.Unlock()

	m.backend.Store(&backend)
	m.logger.Info("model loaded successfully",
		zap.String("backend", backend.Name()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Loaded reports whether a model is currently held.
func (m *Manager) Loaded() bool {
	return m.backend.Load() != nil
}

// Segmented reports whether the loaded backend returns timed segments.
// It is false while unloaded.
func (m *Manager) Segmented() bool {
	b := m.backend.Load()
	return b != nil && (*b).Segmented()
}

// Transcribe runs one inference on the worker pool.
func (m *Manager) Transcribe(ctx context.Context, audioPath string, opts transcription.Options) (*transcription.Result, error) {
	b := m.backend.Load()
	if b == nil {
		return nil, ErrNotLoaded
	}
	backend := *b

	m.mu.Lock()
	pool := m.pool
	m.mu.Unlock()
	if pool == nil {
		return nil, ErrNotLoaded
	}

	return worker.Do(ctx, pool, func(ctx context.Context) (*transcription.Result, error) {
		return backend.Transcribe(ctx, audioPath, opts)
	})
}

// Close drops the model reference, waits for in-flight inference and
// releases the model.
func (m *Manager) Close() error {
	b := m.backend.Swap(nil)

	m.mu.Lock()
	pool := m.pool
	m.pool = nil
	m.mu.Unlock()

	if pool != nil {
		pool.Stop()
	}

	var err error
	if b != nil {
		err = multierr.Append(err, (*b).Close())
		m.logger.Info("model released")
	}
	return err
}
